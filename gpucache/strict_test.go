//go:build gpucachestrict

package gpucache

import "testing"

func TestFetchOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FetchN() out of range did not panic")
		}
	}()
	NewBuilder(0).Freeze().FetchN(5*Width, 1)
}
