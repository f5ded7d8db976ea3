package report

import "propintel-console/pkg/analysis"

func roofSections(a *analysis.RoofAnalysis) []Section {
	if a == nil {
		return []Section{}
	}
	out := make([]Section, 0, 6)
	out = section(out, "quality", "Roof Quality", a.Quality, func(q *analysis.RoofQuality) []Row {
		return []Row{
			scalar("Overall rating", q.OverallRating),
			scalar("Condition score", q.ConditionScore),
			list("Visible issues", q.VisibleIssues),
			list("Quality indicators", q.QualityIndicators),
			scalar("Reasoning", q.Reasoning),
		}
	})
	out = section(out, "age", "Roof Age", a.Age, func(g *analysis.RoofAge) []Row {
		return []Row{
			scalar("Estimated age (years)", g.EstimatedAgeYears),
			scalar("Age category", g.AgeCategory),
			list("Weathering indicators", g.WeatheringIndicators),
			scalar("Reasoning", g.Reasoning),
		}
	})
	out = section(out, "shape", "Roof Shape", a.Shape, func(s *analysis.RoofShape) []Row {
		return []Row{
			scalar("Primary shape", s.PrimaryShape),
			scalar("Complexity", s.Complexity),
			scalar("Roof planes", s.RoofPlanes),
			scalar("Pitch estimate", s.PitchEstimate),
			list("Architectural features", s.ArchitecturalFeatures),
			scalar("Reasoning", s.Reasoning),
		}
	})
	out = section(out, "cover", "Roof Cover", a.Cover, func(c *analysis.RoofCover) []Row {
		return []Row{
			scalar("Material", c.MaterialType),
			scalar("Material confidence", c.MaterialConfidence),
			scalar("Color", c.ColorDescription),
			scalar("Texture pattern", c.TexturePattern),
			list("Secondary materials", c.SecondaryMaterials),
			scalar("Reasoning", c.Reasoning),
		}
	})
	out = section(out, "overall_assessment", "Overall Assessment", a.OverallAssessment, func(o *analysis.RoofOverall) []Row {
		return []Row{
			scalar("Summary", o.Summary),
			list("Recommendations", o.Recommendations),
			list("Analysis limitations", o.AnalysisLimitations),
		}
	})
	out = section(out, "image_analysis_metadata", "Image Metadata", a.ImageMetadata, func(m *analysis.RoofImageMetadata) []Row {
		return []Row{
			scalar("Image quality", m.ImageQuality),
			scalar("Viewing angle", m.ViewingAngle),
			scalar("Resolution adequacy", m.ResolutionAdequacy),
			scalar("Weather conditions", m.WeatherConditions),
		}
	})
	return out
}
