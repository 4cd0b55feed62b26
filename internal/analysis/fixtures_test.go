package analysis

import (
	"fmt"

	"github.com/KaramelBytes/tbburden/internal/dataset"
)

// noisyBurden returns twelve countries whose mortality follows a known linear
// model plus a fixed residual pattern.
func noisyBurden() []dataset.Record {
	inc := []float64{12, 25, 40, 60, 85, 110, 150, 210, 280, 360, 450, 620}
	hiv := []float64{0.5, 1.2, 0.8, 2.5, 4.0, 1.5, 6.0, 12.0, 3.0, 25.0, 18.0, 40.0}
	prev := []float64{15, 30, 55, 70, 120, 130, 210, 260, 400, 420, 600, 700}
	det := []float64{90, 88, 85, 80, 75, 72, 65, 60, 55, 50, 45, 40}
	noise := []float64{0.3, -0.2, 0.1, -0.4, 0.25, -0.1, 0.35, -0.3, 0.2, -0.15, 0.05, -0.1}
	out := make([]dataset.Record, len(inc))
	for i := range inc {
		out[i] = dataset.Record{
			Country:       fmt.Sprintf("Country %02d", i+1),
			Population:    float64(1_000_000 * (i + 1)),
			Prevalence:    prev[i],
			Mortality:     1 + 0.08*inc[i] + 0.3*hiv[i] + 0.02*prev[i] + noise[i],
			Incidence:     inc[i],
			HIVPercent:    hiv[i],
			DetectionRate: det[i],
		}
	}
	return out
}

// tieredBurden returns three well separated groups of three countries.
func tieredBurden() []dataset.Record {
	return []dataset.Record{
		{Country: "Low A", Incidence: 18, Mortality: 1.5, HIVPercent: 0.4, DetectionRate: 91, Prevalence: 25, Population: 5e6},
		{Country: "High A", Incidence: 610, Mortality: 62, HIVPercent: 31, DetectionRate: 41, Prevalence: 820, Population: 2e7},
		{Country: "Mid A", Incidence: 190, Mortality: 19, HIVPercent: 5.5, DetectionRate: 66, Prevalence: 260, Population: 4e7},
		{Country: "Low B", Incidence: 22, Mortality: 2.1, HIVPercent: 0.6, DetectionRate: 89, Prevalence: 31, Population: 8e6},
		{Country: "Mid B", Incidence: 210, Mortality: 21, HIVPercent: 4.8, DetectionRate: 63, Prevalence: 290, Population: 3e7},
		{Country: "High B", Incidence: 590, Mortality: 58, HIVPercent: 28, DetectionRate: 44, Prevalence: 780, Population: 1e7},
		{Country: "Low C", Incidence: 15, Mortality: 1.2, HIVPercent: 0.3, DetectionRate: 93, Prevalence: 20, Population: 6e6},
		{Country: "Mid C", Incidence: 205, Mortality: 20, HIVPercent: 6.1, DetectionRate: 64, Prevalence: 275, Population: 2.5e7},
		{Country: "High C", Incidence: 640, Mortality: 65, HIVPercent: 33, DetectionRate: 39, Prevalence: 860, Population: 1.5e7},
	}
}
