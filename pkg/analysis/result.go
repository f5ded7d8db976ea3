package analysis

import (
	"encoding/json"
	"fmt"
)

// Every field below is optional: absence means the model did not report it.

type RoofResult struct {
	ModelID  string        `json:"model_id,omitempty"`
	Analysis *RoofAnalysis `json:"roof_analysis,omitempty"`
}

type RoofAnalysis struct {
	Quality           *RoofQuality       `json:"quality,omitempty"`
	Age               *RoofAge           `json:"age,omitempty"`
	Shape             *RoofShape         `json:"shape,omitempty"`
	Cover             *RoofCover         `json:"cover,omitempty"`
	OverallAssessment *RoofOverall       `json:"overall_assessment,omitempty"`
	ImageMetadata     *RoofImageMetadata `json:"image_analysis_metadata,omitempty"`
}

type RoofQuality struct {
	OverallRating     *Text `json:"overall_rating,omitempty"`
	ConditionScore    *Text `json:"condition_score,omitempty"`
	VisibleIssues     List  `json:"visible_issues,omitempty"`
	QualityIndicators List  `json:"quality_indicators,omitempty"`
	Reasoning         *Text `json:"analysis_reasoning,omitempty"`
}

type RoofAge struct {
	EstimatedAgeYears    *Text `json:"estimated_age_years,omitempty"`
	AgeCategory          *Text `json:"age_category,omitempty"`
	WeatheringIndicators List  `json:"weathering_indicators,omitempty"`
	Reasoning            *Text `json:"analysis_reasoning,omitempty"`
}

type RoofShape struct {
	PrimaryShape          *Text `json:"primary_shape,omitempty"`
	Complexity            *Text `json:"complexity,omitempty"`
	RoofPlanes            *Text `json:"roof_planes,omitempty"`
	PitchEstimate         *Text `json:"pitch_estimate,omitempty"`
	ArchitecturalFeatures List  `json:"architectural_features,omitempty"`
	Reasoning             *Text `json:"analysis_reasoning,omitempty"`
}

type RoofCover struct {
	MaterialType       *Text `json:"material_type,omitempty"`
	MaterialConfidence *Text `json:"material_confidence,omitempty"`
	ColorDescription   *Text `json:"color_description,omitempty"`
	TexturePattern     *Text `json:"texture_pattern,omitempty"`
	SecondaryMaterials List  `json:"secondary_materials,omitempty"`
	Reasoning          *Text `json:"analysis_reasoning,omitempty"`
}

type RoofOverall struct {
	Summary             *Text `json:"summary,omitempty"`
	Recommendations     List  `json:"recommendations,omitempty"`
	AnalysisLimitations List  `json:"analysis_limitations,omitempty"`
}

type RoofImageMetadata struct {
	ImageQuality       *Text `json:"image_quality,omitempty"`
	ViewingAngle       *Text `json:"viewing_angle,omitempty"`
	ResolutionAdequacy *Text `json:"resolution_adequacy,omitempty"`
	WeatherConditions  *Text `json:"weather_conditions,omitempty"`
}

type ConstructionResult struct {
	ModelID           string            `json:"model_id,omitempty"`
	Analysis          *BuildingAnalysis `json:"building_analysis,omitempty"`
	Artifacts         map[string]Text   `json:"artifacts,omitempty"`
	ReportGeneratedAt *Text             `json:"report_generated_at,omitempty"`
}

type BuildingAnalysis struct {
	ConstructionType        *ConstructionType           `json:"construction_type,omitempty"`
	Occupancy               *OccupancyAssessment        `json:"occupancy_assessment,omitempty"`
	PhysicalCharacteristics *PhysicalCharacteristics    `json:"physical_characteristics,omitempty"`
	Materials               *ConstructionMaterials      `json:"construction_materials,omitempty"`
	RiskFactors             *RiskFactors                `json:"risk_factors,omitempty"`
	AgeCondition            *AgeCondition               `json:"age_condition,omitempty"`
	Classifications         *InsuranceClassifications   `json:"insurance_classifications,omitempty"`
	Underwriting            *UnderwritingConsiderations `json:"underwriting_considerations,omitempty"`
	OverallAssessment       *BuildingOverall            `json:"overall_assessment,omitempty"`
	ImageMetadata           *BuildingImageMetadata      `json:"image_analysis_metadata,omitempty"`
}

type ConstructionType struct {
	PrimaryStructuralSystem *Text `json:"primary_structural_system,omitempty"`
	WallConstruction        *Text `json:"wall_construction,omitempty"`
	ConstructionClass       *Text `json:"construction_class,omitempty"`
	AIRConstructionCode     *Text `json:"air_construction_code,omitempty"`
	Confidence              *Text `json:"construction_confidence,omitempty"`
	StructuralIndicators    List  `json:"structural_indicators,omitempty"`
	Reasoning               *Text `json:"analysis_reasoning,omitempty"`
}

type OccupancyAssessment struct {
	PrimaryUse       *Text `json:"primary_use,omitempty"`
	SecondaryUses    List  `json:"secondary_uses,omitempty"`
	AIROccupancyCode *Text `json:"air_occupancy_code,omitempty"`
	ISOOccupancyType *Text `json:"iso_occupancy_type,omitempty"`
	Confidence       *Text `json:"occupancy_confidence,omitempty"`
	UseIndicators    List  `json:"use_indicators,omitempty"`
	Reasoning        *Text `json:"analysis_reasoning,omitempty"`
}

type PhysicalCharacteristics struct {
	StoryCount            *Text `json:"story_count,omitempty"`
	EstimatedHeightFeet   *Text `json:"estimated_height_feet,omitempty"`
	BuildingWidthEstimate *Text `json:"building_width_estimate,omitempty"`
	ArchitecturalStyle    *Text `json:"architectural_style,omitempty"`
	NotableFeatures       List  `json:"notable_features,omitempty"`
	AccessibilityFeatures List  `json:"accessibility_features,omitempty"`
	Reasoning             *Text `json:"analysis_reasoning,omitempty"`
}

type ConstructionMaterials struct {
	PrimaryWallMaterial *Text `json:"primary_wall_material,omitempty"`
	SecondaryMaterials  List  `json:"secondary_materials,omitempty"`
	WindowType          *Text `json:"window_type,omitempty"`
	MaterialQuality     *Text `json:"material_quality,omitempty"`
	VisibleRoofMaterial *Text `json:"visible_roof_material,omitempty"`
	MaterialCondition   *Text `json:"material_condition,omitempty"`
	Reasoning           *Text `json:"analysis_reasoning,omitempty"`
}

type RiskFactors struct {
	FireRiskLevel         *Text `json:"fire_risk_level,omitempty"`
	NatCatVulnerabilities List  `json:"nat_cat_vulnerabilities,omitempty"`
	ProximityHazards      List  `json:"proximity_hazards,omitempty"`
	SecurityLevel         *Text `json:"security_level,omitempty"`
	EnvironmentalFactors  List  `json:"environmental_factors,omitempty"`
	OverallRiskProfile    *Text `json:"overall_risk_profile,omitempty"`
	Reasoning             *Text `json:"analysis_reasoning,omitempty"`
}

type AgeCondition struct {
	EstimatedAgeRange    *Text `json:"estimated_age_range,omitempty"`
	ConditionRating      *Text `json:"condition_rating,omitempty"`
	ConditionScore       *Text `json:"condition_score,omitempty"`
	MaintenanceLevel     *Text `json:"maintenance_level,omitempty"`
	RenovationIndicators List  `json:"renovation_indicators,omitempty"`
	DeteriorationSigns   List  `json:"deterioration_signs,omitempty"`
	Reasoning            *Text `json:"analysis_reasoning,omitempty"`
}

type InsuranceClassifications struct {
	SuggestedAIRConstruction *Text `json:"suggested_air_construction,omitempty"`
	SuggestedAIROccupancy    *Text `json:"suggested_air_occupancy,omitempty"`
	ISOOccupancyType         *Text `json:"iso_occupancy_type,omitempty"`
	RMSCodes                 *Text `json:"rms_codes,omitempty"`
	Confidence               *Text `json:"classification_confidence,omitempty"`
	AlternativeCodes         List  `json:"alternative_codes,omitempty"`
	Reasoning                *Text `json:"analysis_reasoning,omitempty"`
}

type UnderwritingConsiderations struct {
	KeyStrengths           List `json:"key_strengths,omitempty"`
	KeyConcerns            List `json:"key_concerns,omitempty"`
	RecommendedInspections List `json:"recommended_inspections,omitempty"`
	CoverageConsiderations List `json:"coverage_considerations,omitempty"`
	PricingFactors         List `json:"pricing_factors,omitempty"`
}

type BuildingOverall struct {
	PropertySummary     *Text `json:"property_summary,omitempty"`
	Insurability        *Text `json:"insurability,omitempty"`
	KeyRecommendations  List  `json:"key_recommendations,omitempty"`
	AnalysisLimitations List  `json:"analysis_limitations,omitempty"`
}

type BuildingImageMetadata struct {
	PhotoQuality         *Text `json:"photo_quality,omitempty"`
	ViewingAngle         *Text `json:"viewing_angle,omitempty"`
	LightingConditions   *Text `json:"lighting_conditions,omitempty"`
	DistanceFromBuilding *Text `json:"distance_from_building,omitempty"`
	Obstructions         List  `json:"obstructions,omitempty"`
}

// envelope covers both shapes the services have used: the analysis tree nested under
// "analysis", or placed at the top level of the payload.
type envelope struct {
	ModelID           Text            `json:"model_id"`
	Analysis          json.RawMessage `json:"analysis"`
	Artifacts         map[string]Text `json:"artifacts"`
	ReportGeneratedAt *Text           `json:"report_generated_at"`
}

// DecodeRoofResult decodes a roof job result payload.
func DecodeRoofResult(raw json.RawMessage) (*RoofResult, error) {
	if !hasPayload(raw) {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: roof result: %v", ErrProtocol, err)
	}

	inner := raw
	if hasPayload(env.Analysis) {
		inner = env.Analysis
	}
	var wrapper struct {
		Analysis *RoofAnalysis `json:"roof_analysis"`
	}
	if err := json.Unmarshal(inner, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: roof result: %v", ErrProtocol, err)
	}
	return &RoofResult{ModelID: env.ModelID.String(), Analysis: wrapper.Analysis}, nil
}

// DecodeConstructionResult decodes a construction job result payload.
func DecodeConstructionResult(raw json.RawMessage) (*ConstructionResult, error) {
	if !hasPayload(raw) {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: construction result: %v", ErrProtocol, err)
	}

	inner := raw
	if hasPayload(env.Analysis) {
		inner = env.Analysis
	}
	var wrapper struct {
		Analysis *BuildingAnalysis `json:"building_analysis"`
	}
	if err := json.Unmarshal(inner, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: construction result: %v", ErrProtocol, err)
	}
	return &ConstructionResult{
		ModelID:           env.ModelID.String(),
		Analysis:          wrapper.Analysis,
		Artifacts:         env.Artifacts,
		ReportGeneratedAt: env.ReportGeneratedAt,
	}, nil
}
