package catalog

import "strings"

// QuestionType selects how a question is answered.
type QuestionType string

const (
	Text        QuestionType = "text"
	TextArea    QuestionType = "textarea"
	Select      QuestionType = "select"
	MultiSelect QuestionType = "multi-select"
)

// Question is a single disclosure prompt.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
}

// Batch is the fixed group of questions shown on one wizard step.
type Batch struct {
	Step      int        `json:"step"`
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Identifiers of the questions that map onto top-level submission fields.
const (
	FieldProductName    = "product_name"
	FieldCategory       = "category"
	FieldBrand          = "brand_name"
	FieldManufacturer   = "manufacturer"
	FieldDescription    = "description"
	FieldTargetAudience = "target_audience"
)

// CategoryOptions lists the product categories offered by the intake form.
var CategoryOptions = []string{
	"Food & Snacks",
	"Beverages",
	"Cosmetics & Beauty",
	"Health Supplements",
	"Personal Care",
	"Cleaning Products",
	"Baby Products",
	"Pet Food",
	"Other",
}

// AudienceOptions lists the target audiences offered by the intake form.
var AudienceOptions = []string{
	"Children",
	"Adults",
	"Seniors",
	"Athletes",
	"Everyone",
	"Pregnant Women",
	"Specific Health Conditions",
}

var basicQuestions = []Question{
	{ID: FieldProductName, Text: "What is your product name?", Type: Text, Required: true},
	{ID: FieldCategory, Text: "Product Category", Type: Select, Required: true, Options: CategoryOptions},
	{ID: FieldBrand, Text: "Brand Name", Type: Text, Required: true},
	{ID: FieldManufacturer, Text: "Manufacturer/Company Name", Type: Text, Required: true},
	{ID: FieldDescription, Text: "Detailed Product Description", Type: TextArea, Required: true},
	{ID: FieldTargetAudience, Text: "Target Audience", Type: Select, Required: true, Options: AudienceOptions},
}

var ingredientQuestions = []Question{
	{ID: "ingredients", Text: "Complete List of Ingredients (in order of quantity)", Type: TextArea, Required: true},
	{ID: "allergens", Text: "Allergen Information (nuts, dairy, gluten, soy, etc.)", Type: TextArea, Required: true},
	{ID: "nutritional_info", Text: "Nutritional Information per serving", Type: TextArea, Required: true},
	{ID: "additives", Text: "Preservatives, Artificial Colors, or Flavors", Type: TextArea},
	{ID: "gmo_status", Text: "GMO Status", Type: Select, Required: true, Options: []string{"Non-GMO", "Contains GMO", "Not Tested", "GMO-Free Certified"}},
	{ID: "organic_status", Text: "Organic Certification", Type: Select, Options: []string{"100% Organic", "Organic", "Made with Organic", "Not Organic", "In Process"}},
}

var sourcingQuestions = []Question{
	{ID: "sourcing", Text: "Where are your ingredients sourced from? (Countries/Regions)", Type: TextArea, Required: true},
	{ID: "supplier_ethics", Text: "Supplier Ethics & Labor Practices", Type: TextArea, Required: true},
	{ID: "certifications", Text: "Certifications (Organic, Fair Trade, Cruelty-Free, etc.)", Type: TextArea},
	{ID: "sustainability", Text: "Environmental & Sustainability Practices", Type: TextArea, Required: true},
	{ID: "packaging", Text: "Packaging Materials & Recyclability", Type: TextArea, Required: true},
	{ID: "carbon_footprint", Text: "Carbon Footprint Information", Type: TextArea},
	{ID: "animal_testing", Text: "Animal Testing Policy", Type: Select, Options: []string{"Never Tested", "Cruelty-Free Certified", "Required by Law", "Not Applicable"}},
}

// Batches returns the three question batches in step order. The result is a
// fresh copy and may be modified by the caller.
func Batches() []Batch {
	return []Batch{
		{Step: 1, Key: "basic", Title: "Basic Information", Questions: cloneQuestions(basicQuestions)},
		{Step: 2, Key: "ingredients", Title: "Ingredients & Composition", Questions: cloneQuestions(ingredientQuestions)},
		{Step: 3, Key: "sourcing", Title: "Sourcing & Ethics", Questions: cloneQuestions(sourcingQuestions)},
	}
}

// IsTopLevel reports whether the question id is stored as a submission field
// rather than in the free-form answer map.
func IsTopLevel(id string) bool {
	switch id {
	case FieldProductName, FieldCategory, FieldBrand, FieldManufacturer, FieldDescription, FieldTargetAudience:
		return true
	}
	return false
}

// Check returns a human readable problem with value, or "" when it is acceptable.
func (q Question) Check(value any) string {
	if IsBlank(value) {
		if q.Required {
			return "This field is required"
		}
		return ""
	}
	switch q.Type {
	case Select:
		if !q.allows(AnswerText(value)) {
			return "Select one of the listed options"
		}
	case MultiSelect:
		for _, item := range AnswerList(value) {
			if !q.allows(item) {
				return "Select only listed options"
			}
		}
	}
	return ""
}

func (q Question) allows(value string) bool {
	if len(q.Options) == 0 {
		return true
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt, strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
