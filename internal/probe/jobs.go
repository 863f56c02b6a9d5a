package probe

import (
	"image/color"

	"github.com/ironsheep/image-probe/internal/imaging"
)

// APIJob is the job run by the JSON endpoint.
func APIJob() imaging.Job {
	return imaging.Job{
		Width:        10,
		Height:       10,
		Background:   color.NRGBA{R: 0, G: 255, B: 0, A: 255},
		TargetWidth:  5,
		TargetHeight: 5,
		Format:       "png",
	}
}

// PageJob is the job run by the HTML page.
func PageJob() imaging.Job {
	return imaging.Job{
		Width:        100,
		Height:       100,
		Background:   color.NRGBA{R: 255, G: 100, B: 100, A: 255},
		TargetWidth:  50,
		TargetHeight: 50,
		Format:       "png",
	}
}
