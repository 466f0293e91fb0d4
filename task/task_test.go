package task

import (
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/gpucache"
)

func TestAddressNeverStraddlesRow(t *testing.T) {
	for i := Index(0); i < 2000; i++ {
		u, _ := gpucache.UV(Address(i))
		if u+VecsPerTask > gpucache.Width {
			t.Fatalf("task %d at column %d straddles a row", i, u)
		}
	}
}

func TestTableRoundTrip(t *testing.T) {
	b := NewBuilder()
	pic := Picture{Rect: geom.R(10, 20, 30, 40), Layer: 2, ContentOrigin: geom.V2(5, 6), Color: geom.V4(1, 0, 0, 1)}
	clip := ClipArea{Rect: geom.R(0, 0, 8, 8), ScreenOrigin: geom.V2(100, 50), Layer: 1, DeviceSpace: true, Inner: geom.R(2, 2, 4, 4)}
	blur := Blur{Rect: geom.R(0, 0, 64, 64), Layer: 3, Sigma: 2.5, ScaleFactor: 1, Color: geom.V4(0, 0, 0, 0.5)}

	// Fill past the first row to exercise the row skip.
	for range 400 {
		if _, err := b.Add(pic.Encode()); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	ci, _ := b.Add(clip.Encode())
	bi, _ := b.Add(blur.Encode())
	tab := b.Freeze()

	if got := tab.Picture(345); got != pic {
		t.Errorf("Picture(345) = %+v, want %+v", got, pic)
	}
	if got := tab.ClipArea(ci); got != clip {
		t.Errorf("ClipArea() = %+v, want %+v", got, clip)
	}
	if got := tab.Blur(bi); got != blur {
		t.Errorf("Blur() = %+v, want %+v", got, blur)
	}
}

func TestInvalidClipIsSentinel(t *testing.T) {
	tab := NewBuilder().Freeze()
	area := tab.ClipArea(Invalid)
	if !area.IsNoClip() {
		t.Errorf("ClipArea(Invalid).IsNoClip() = false, want true")
	}
}
