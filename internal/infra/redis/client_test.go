package redis

import "testing"

func TestSnapshotKeys(t *testing.T) {
	if got := snapshotKey(8453, "0xabc"); got != "jackpot:snapshot:8453:0xabc" {
		t.Errorf("unexpected key %s", got)
	}
	if got := snapshotKey(8453, ""); got != "jackpot:snapshot:8453:anonymous" {
		t.Errorf("unexpected key %s", got)
	}
	if got := latestKey(8453); got != "jackpot:snapshot:8453:latest" {
		t.Errorf("unexpected key %s", got)
	}
}
