package psfdiag

import "fmt"

// Instrument carries the optical configuration forwarded with a diagnosis
// request. The core never interprets these fields; the external analysis
// service does.
type Instrument struct {
	ApertureMM     float64 `yaml:"apertureMM" json:"apertureMM"`
	FocalLengthMM  float64 `yaml:"focalLengthMM" json:"focalLengthMM"`
	PixelSizeUM    float64 `yaml:"pixelSizeUM" json:"pixelSizeUM"`
	ObstructionPct float64 `yaml:"obstructionPct" json:"obstructionPct"`
	FilterNM       float64 `yaml:"filterNM" json:"filterNM"`
}

// FocalRatio is the only derived convenience the core offers on the
// instrument data; everything else is pass-through.
func (i Instrument) FocalRatio() float64 {
	if i.ApertureMM <= 0 {
		return 0
	}
	return i.FocalLengthMM / i.ApertureMM
}

// AnalysisRequest is the payload handed to the external diagnosis
// collaborator: the encoded crop, the measurements, and the instrument
// configuration. Building the request is the core's last responsibility;
// transport and the diagnosis itself live outside.
type AnalysisRequest struct {
	ImagePNG     []byte          `json:"imagePng"`
	Stats        ProcessingStats `json:"stats"`
	Instrument   Instrument      `json:"instrument"`
	LogStretched bool            `json:"logStretched"`
}

// BuildAnalysisRequest encodes the crop and assembles the request. The
// crop buffer is the one produced by Crop under the currently selected
// tone-mapping mode.
func BuildAnalysisRequest(crop *PixelBuffer, stats ProcessingStats, inst Instrument, logStretched bool) (*AnalysisRequest, error) {
	encoded, err := EncodePNG(crop)
	if err != nil {
		return nil, fmt.Errorf("building analysis request: %w", err)
	}
	return &AnalysisRequest{
		ImagePNG:     encoded,
		Stats:        stats,
		Instrument:   inst,
		LogStretched: logStretched,
	}, nil
}
