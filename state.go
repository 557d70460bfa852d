package fitsview

import "fmt"

// State is the renderer's position in its load/build lifecycle.
//
//	Empty --LoadImageData--> TextureLoaded --BuildPipeline--> Ready
//	Ready --LoadImageData--> TextureLoaded
type State uint8

const (
	// Empty means no image has been loaded.
	Empty State = iota

	// TextureLoaded means an image is uploaded but no pipeline targets it.
	// The loop presents the placeholder color.
	TextureLoaded

	// Ready means the current pipeline was built against the current image.
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case TextureLoaded:
		return "TextureLoaded"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Stats counts presentation loop outcomes.
type Stats struct {
	// Drawn is the number of frames that drew the image.
	Drawn uint64

	// Cleared is the number of frames that showed the placeholder color.
	Cleared uint64

	// Skipped is the number of ticks with no frame presented, mostly
	// failed acquisitions.
	Skipped uint64
}
