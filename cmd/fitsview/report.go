package main

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/fitsview/fits"
)

// report prints the image summary with grouped digits.
func report(w io.Writer, path string, img *fits.Image, s fits.Statistics, lo, hi float32) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s: %d x %d %s\n", path, img.Width, img.Height, img.Format)
	p.Fprintf(w, "  pixels   %d finite of %d\n", s.Count, len(img.Pixels))
	if s.Count == 0 {
		return
	}
	p.Fprintf(w, "  range    %.6g to %.6g\n", s.Min, s.Max)
	p.Fprintf(w, "  mean     %.6g  stddev %.6g  median %.6g\n", s.Mean, s.StdDev, s.Median)
	p.Fprintf(w, "  stretch  %.6g to %.6g\n", lo, hi)
	if obj := img.Header["OBJECT"]; obj != "" {
		p.Fprintf(w, "  object   %s\n", obj)
	}
}
