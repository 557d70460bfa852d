// Package fitsview renders a single-channel floating-point image, such as
// a FITS astronomical frame, on the GPU with interactive pan, zoom and
// intensity stretch.
//
// A Renderer owns the current image texture and the view pipeline built
// against it. A background presentation loop draws the image to the window
// surface once per tick, independent of when callers load data or change
// view parameters.
//
// # Lifecycle
//
//	r, err := fitsview.New(window)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	r.Start()
//
//	if err := r.LoadImageData(pixels, width, height); err != nil {
//	    return err
//	}
//	if err := r.BuildPipeline(r.SurfaceFormat(), vw, vh); err != nil {
//	    return err
//	}
//	r.UpdateStretch(lo, hi)
//	r.UpdateView(2, 0.1, -0.1)
//
// Loading an image discards the pipeline built against the previous one;
// until BuildPipeline runs again the loop clears the window to a
// placeholder color. View updates (UpdateView, UpdateStretch,
// UpdateViewportAspect, UpdateLevels, UpdateTransfer) write the uniform
// block in place and are silently ignored unless the renderer is Ready.
//
// # Uniform block
//
// The shader reads 48 bytes of little-endian f32: min, max, brightness,
// contrast, zoom, pan_x, pan_y, image_aspect, viewport_aspect, transfer,
// and two reserved slots. Offsets are 0, 4, 8, ..., 44.
//
// # Logging
//
// fitsview is silent by default. Call SetLogger or pass WithLogger to
// enable structured logging via log/slog.
package fitsview
