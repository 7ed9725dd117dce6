package main

// Column names after header normalization (see normalizeColumn).
const (
	colAgeGroup      = "age_group"
	colGender        = "gender"
	colRace          = "race"
	colEthnicity     = "ethnicity"
	colAdmissionType = "type_of_admission"
	colSeverity      = "apr_severity_of_illness_description"
	colMortalityRisk = "apr_risk_of_mortality"
	colMedSurg       = "apr_medical_surgical_description"
	colPayTypology1  = "payment_typology_1"
	colPayTypology2  = "payment_typology_2"
	colPayTypology3  = "payment_typology_3"
	colLengthOfStay  = "length_of_stay"
	colTotalCharges  = "total_charges"
	colTotalCosts    = "total_costs"
)

var requiredColumns = []string{
	colAgeGroup,
	colGender,
	colRace,
	colEthnicity,
	colAdmissionType,
	colSeverity,
	colMortalityRisk,
	colMedSurg,
	colPayTypology1,
	colPayTypology2,
	colPayTypology3,
	colLengthOfStay,
	colTotalCharges,
	colTotalCosts,
}

// Closed categorical domains. A non-empty value outside its domain is a
// data error; open-domain columns (race, ethnicity, payment typologies)
// accept any non-empty string.
var (
	ageGroupLevels = levelSet("0 to 17", "18 to 29", "30 to 49", "50 to 69", "70 or Older")
	genderLevels   = levelSet("F", "M", "U")
	admissionTypeLevels = levelSet(
		"Elective", "Emergency", "Newborn", "Not Available", "Trauma", "Urgent")
	severityLevels  = levelSet("Minor", "Moderate", "Major", "Extreme")
	mortalityLevels = levelSet("Minor", "Moderate", "Major", "Extreme")
	medSurgLevels   = levelSet("Medical", "Surgical", "Not Applicable")
)

func levelSet(levels ...string) map[string]bool {
	m := make(map[string]bool, len(levels))
	for _, l := range levels {
		m[l] = true
	}
	return m
}

// Payment typology categories mapped to insurance indicators.
const (
	typMedicare   = "Medicare"
	typMedicaid   = "Medicaid"
	typPrivate    = "Private Health Insurance"
	typBlueCross  = "Blue Cross/Blue Shield"
	typSelfPay    = "Self-Pay"
	typGovernment = "Federal/State/Local/VA"
)

// DischargeRecord is one inpatient discharge event as read from the input
// file. Numeric fields are NaN when the source cell is empty; categorical
// fields are "" when empty. Payment typologies are nil when absent, which
// the preparer treats as non-matching rather than missing data.
type DischargeRecord struct {
	AgeGroup      string
	Gender        string
	Race          string
	Ethnicity     string
	AdmissionType string
	Severity      string
	MortalityRisk string
	MedSurg       string
	PayTypology1  *string
	PayTypology2  *string
	PayTypology3  *string
	LengthOfStay  float64
	TotalCharges  float64
	TotalCosts    float64
}

// PreparedRecord is a complete-case record with the derived label and the
// six multi-hot insurance indicators. Both cost fields are retained here;
// the correlation screen's removal decision is carried separately and
// applied when the design matrix is built.
type PreparedRecord struct {
	AgeGroup      string
	Gender        string
	Race          string
	Ethnicity     string
	AdmissionType string
	Severity      string
	MortalityRisk string
	MedSurg       string

	Medicare   bool
	Medicaid   bool
	Private    bool
	BlueCross  bool
	SelfPay    bool
	Government bool

	TotalCharges float64
	TotalCosts   float64

	ExtendedStay bool
}

// Dataset is an encoded design matrix with aligned labels (1 = extended
// stay). Rows are read-only after construction; splits and folds share the
// underlying row slices.
type Dataset struct {
	X     [][]float64
	Y     []int
	Names []string
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// Family identifies a classifier family in reports and errors.
type Family string

const (
	FamilyLogistic   Family = "logistic"
	FamilyElasticNet Family = "elastic_net"
	FamilyTree       Family = "tree"
)

// ResamplePolicy controls class-imbalance correction during training.
type ResamplePolicy int

const (
	// ResampleNone trains on the fold partition as-is.
	ResampleNone ResamplePolicy = iota
	// ResampleDownMajority down-samples the majority class to the minority
	// count within the training partition only.
	ResampleDownMajority
)

func (p ResamplePolicy) String() string {
	if p == ResampleDownMajority {
		return "down"
	}
	return "none"
}
