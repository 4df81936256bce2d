package plan

import (
	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
)

// Step record fields requested from the provider
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldLegalBasis  = "legalBasis"
	fieldPriority    = "priority"
)

// StepSchema constrains plan and suggestion responses to a list of steps
var StepSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			fieldTitle: {
				Type:        llm.TypeString,
				Description: "Titre court de l'acte d'enquête",
			},
			fieldDescription: {
				Type:        llm.TypeString,
				Description: "Description détaillée de la procédure à suivre",
			},
			fieldLegalBasis: {
				Type:        llm.TypeString,
				Description: "Article de loi ou code de procédure pénale pertinent",
			},
			fieldPriority: {
				Type:        llm.TypeString,
				Description: "Priorité: URGENT, HAUTE, ou NORMALE",
				Enum:        priorityLabels(),
			},
		},
		Required: []string{fieldTitle, fieldDescription, fieldLegalBasis, fieldPriority},
	},
}

func priorityLabels() []string {
	ps := model.Priorities()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
