//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// ConfidenceInterval bounds an ancestry percentage.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Unit  string  `json:"unit"`
}

// PopulationComponent is one population group's share of a sample's ancestry.
type PopulationComponent struct {
	PopulationGroup     string             `json:"population_group"`
	Percentage          float64            `json:"percentage"`
	ConfidenceInterval  ConfidenceInterval `json:"confidence_interval"`
	SampleSizeReference int                `json:"sample_size_reference"`
	ReferenceDataset    string             `json:"reference_dataset"`
}

// AncestryComposition is the ancestry section of a results document.
type AncestryComposition struct {
	SampleID           string                `json:"sample_id"`
	PrimaryPopulations []PopulationComponent `json:"primary_populations"`
	Methodology        string                `json:"methodology"`
	Limitations        []string              `json:"limitations"`
	ConfidenceNote     string                `json:"confidence_note"`
}

// HealthMarker is one genotyped variant with its clinical context.
type HealthMarker struct {
	Gene                 string             `json:"gene"`
	Variant              string             `json:"variant"`
	Phenotype            string             `json:"phenotype"`
	Genotype             string             `json:"genotype"`
	ClinicalSignificance string             `json:"clinical_significance"`
	PopulationFrequency  map[string]float64 `json:"population_frequency"`
	Disclaimer           string             `json:"disclaimer"`
}

// SampleResults is the results document for a processed sample.
type SampleResults struct {
	SampleID          string               `json:"sample_id"`
	SampleStatus      SampleStatus         `json:"sample_status"`
	ResultsComputedAt *Timestamp           `json:"results_computed_at,omitempty"`
	Disclaimer        string               `json:"disclaimer"`
	Ancestry          *AncestryComposition `json:"ancestry,omitempty"`
	HealthMarkers     []HealthMarker       `json:"health_markers"`
}
