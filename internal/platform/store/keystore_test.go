package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestKeyStoreTrackAndKeys(t *testing.T) {
	s := NewKeyStore()
	s.Track("Rule_b")
	s.Track("Rule_a")
	s.Track("Rule_a") // 重复 Track 不产生重复 key
	s.Track("Campaign_c")

	keys := s.Keys()
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
	if keys[0] != "Campaign_c" || keys[1] != "Rule_a" || keys[2] != "Rule_b" {
		t.Fatalf("got %v, want sorted keys", keys)
	}
}

func TestKeyStoreRemove(t *testing.T) {
	s := NewKeyStore()
	s.Track("Rule_a")
	s.Track("Rule_b")
	s.Remove("Rule_a")
	s.Remove("Rule_missing") // 删不存在的 key 不报错

	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "Rule_b" {
		t.Fatalf("got %v, want [Rule_b]", keys)
	}
}

func TestKeyStoreClear(t *testing.T) {
	s := NewKeyStore()
	s.Track("Rule_a")
	s.Track("Rule_b")

	cleared := s.Clear()
	if len(cleared) != 2 {
		t.Fatalf("got %d cleared, want 2", len(cleared))
	}
	if got := s.Keys(); len(got) != 0 {
		t.Fatalf("got %v after clear, want empty", got)
	}
}

func TestKeyStoreConcurrent(t *testing.T) {
	s := NewKeyStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("Rule_%d", n)
			s.Track(key)
			s.Keys()
			if n%2 == 0 {
				s.Remove(key)
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.Keys()); got != 25 {
		t.Fatalf("got %d keys, want 25", got)
	}
}
