// Package fits loads single-channel images for display and computes the
// summary statistics used to pick an initial intensity stretch.
//
// Supported inputs are FITS primary HDUs (2-D, or 3-D with a single
// plane), 8/16-bit grayscale TIFF and PNG. Pixels are returned as
// float32 in file row order with BZERO/BSCALE applied; blank integer
// pixels become NaN.
package fits
