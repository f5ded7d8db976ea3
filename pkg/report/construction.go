package report

import "propintel-console/pkg/analysis"

func constructionSections(a *analysis.BuildingAnalysis) []Section {
	if a == nil {
		return []Section{}
	}
	out := make([]Section, 0, 10)
	out = section(out, "construction_type", "Construction Type", a.ConstructionType, func(c *analysis.ConstructionType) []Row {
		return []Row{
			scalar("Structural system", c.PrimaryStructuralSystem),
			scalar("Wall construction", c.WallConstruction),
			scalar("Construction class", c.ConstructionClass),
			scalar("AIR construction code", c.AIRConstructionCode),
			scalar("Confidence", c.Confidence),
			list("Structural indicators", c.StructuralIndicators),
			scalar("Reasoning", c.Reasoning),
		}
	})
	out = section(out, "occupancy_assessment", "Occupancy", a.Occupancy, func(o *analysis.OccupancyAssessment) []Row {
		return []Row{
			scalar("Primary use", o.PrimaryUse),
			list("Secondary uses", o.SecondaryUses),
			scalar("AIR occupancy code", o.AIROccupancyCode),
			scalar("ISO occupancy type", o.ISOOccupancyType),
			scalar("Confidence", o.Confidence),
			list("Use indicators", o.UseIndicators),
			scalar("Reasoning", o.Reasoning),
		}
	})
	out = section(out, "physical_characteristics", "Physical Characteristics", a.PhysicalCharacteristics, func(p *analysis.PhysicalCharacteristics) []Row {
		return []Row{
			scalar("Stories", p.StoryCount),
			scalar("Estimated height (ft)", p.EstimatedHeightFeet),
			scalar("Building width", p.BuildingWidthEstimate),
			scalar("Architectural style", p.ArchitecturalStyle),
			list("Notable features", p.NotableFeatures),
			list("Accessibility features", p.AccessibilityFeatures),
			scalar("Reasoning", p.Reasoning),
		}
	})
	out = section(out, "construction_materials", "Materials", a.Materials, func(m *analysis.ConstructionMaterials) []Row {
		return []Row{
			scalar("Primary wall material", m.PrimaryWallMaterial),
			list("Secondary materials", m.SecondaryMaterials),
			scalar("Window type", m.WindowType),
			scalar("Material quality", m.MaterialQuality),
			scalar("Visible roof material", m.VisibleRoofMaterial),
			scalar("Material condition", m.MaterialCondition),
			scalar("Reasoning", m.Reasoning),
		}
	})
	out = section(out, "risk_factors", "Risk Factors", a.RiskFactors, func(r *analysis.RiskFactors) []Row {
		return []Row{
			scalar("Fire risk", r.FireRiskLevel),
			list("Nat-cat vulnerabilities", r.NatCatVulnerabilities),
			list("Proximity hazards", r.ProximityHazards),
			scalar("Security level", r.SecurityLevel),
			list("Environmental factors", r.EnvironmentalFactors),
			scalar("Overall risk profile", r.OverallRiskProfile),
			scalar("Reasoning", r.Reasoning),
		}
	})
	out = section(out, "age_condition", "Age & Condition", a.AgeCondition, func(c *analysis.AgeCondition) []Row {
		return []Row{
			scalar("Estimated age", c.EstimatedAgeRange),
			scalar("Condition rating", c.ConditionRating),
			scalar("Condition score", c.ConditionScore),
			scalar("Maintenance level", c.MaintenanceLevel),
			list("Renovation indicators", c.RenovationIndicators),
			list("Deterioration signs", c.DeteriorationSigns),
			scalar("Reasoning", c.Reasoning),
		}
	})
	out = section(out, "insurance_classifications", "Insurance Classifications", a.Classifications, func(c *analysis.InsuranceClassifications) []Row {
		return []Row{
			scalar("Suggested AIR construction", c.SuggestedAIRConstruction),
			scalar("Suggested AIR occupancy", c.SuggestedAIROccupancy),
			scalar("ISO occupancy type", c.ISOOccupancyType),
			scalar("RMS codes", c.RMSCodes),
			scalar("Confidence", c.Confidence),
			list("Alternative codes", c.AlternativeCodes),
			scalar("Reasoning", c.Reasoning),
		}
	})
	out = section(out, "underwriting_considerations", "Underwriting", a.Underwriting, func(u *analysis.UnderwritingConsiderations) []Row {
		return []Row{
			list("Key strengths", u.KeyStrengths),
			list("Key concerns", u.KeyConcerns),
			list("Recommended inspections", u.RecommendedInspections),
			list("Coverage considerations", u.CoverageConsiderations),
			list("Pricing factors", u.PricingFactors),
		}
	})
	out = section(out, "overall_assessment", "Overall Assessment", a.OverallAssessment, func(o *analysis.BuildingOverall) []Row {
		return []Row{
			scalar("Property summary", o.PropertySummary),
			scalar("Insurability", o.Insurability),
			list("Key recommendations", o.KeyRecommendations),
			list("Analysis limitations", o.AnalysisLimitations),
		}
	})
	out = section(out, "image_analysis_metadata", "Image Metadata", a.ImageMetadata, func(m *analysis.BuildingImageMetadata) []Row {
		return []Row{
			scalar("Photo quality", m.PhotoQuality),
			scalar("Viewing angle", m.ViewingAngle),
			scalar("Lighting", m.LightingConditions),
			scalar("Distance from building", m.DistanceFromBuilding),
			list("Obstructions", m.Obstructions),
		}
	})
	return out
}
