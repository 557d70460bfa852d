package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/fitsview/fits"
)

func TestReport(t *testing.T) {
	img := &fits.Image{
		Pixels: make([]float32, 2000*1000),
		Width:  2000,
		Height: 1000,
		Format: "fits",
		Header: map[string]string{"OBJECT": "M42"},
	}
	s := fits.Statistics{Count: 1999999, Min: 1, Max: 50000, Mean: 12, StdDev: 3, Median: 11}

	var b bytes.Buffer
	report(&b, "m42.fits", img, s, 5, 400)
	out := b.String()

	for _, want := range []string{
		"m42.fits: 2,000 x 1,000 fits",
		"1,999,999 finite of 2,000,000",
		"stretch  5 to 400",
		"object   M42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReportEmpty(t *testing.T) {
	img := &fits.Image{Pixels: make([]float32, 4), Width: 2, Height: 2, Format: "png"}
	var b bytes.Buffer
	report(&b, "x.png", img, fits.Statistics{}, 0, 1)
	if strings.Contains(b.String(), "range") {
		t.Errorf("empty image reported a range:\n%s", b.String())
	}
}
