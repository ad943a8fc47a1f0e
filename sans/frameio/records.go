package frameio

// PixelRecord is one row of a frame table.
type PixelRecord struct {
	ID        int64     `parquet:"id"`
	X         float64   `parquet:"x"`
	Y         float64   `parquet:"y"`
	Z         float64   `parquet:"z"`
	Masked    bool      `parquet:"masked"`
	Monitor   bool      `parquet:"monitor"`
	Counts    []float64 `parquet:"counts,list"`
	Variances []float64 `parquet:"variances,list"`
}

// CurveRecord is one wavelength bin of a curve table.
type CurveRecord struct {
	Low      float64 `parquet:"low"`
	High     float64 `parquet:"high"`
	Value    float64 `parquet:"value"`
	Variance float64 `parquet:"variance"`
}

// Sidecar is the YAML metadata stored next to a frame table.
type Sidecar struct {
	Instrument   string             `yaml:"instrument"`
	Parameters   map[string]float64 `yaml:"parameters,omitempty"`
	Edges        []float64          `yaml:"edges"`
	Distribution bool               `yaml:"distribution,omitempty"`
	Run          map[string]float64 `yaml:"run,omitempty"`
	// BeamCenter is the beam position on the detector in metres, if known.
	BeamCenter *Point `yaml:"beam_center,omitempty"`
}

// Point is a detector-plane position in metres.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}
