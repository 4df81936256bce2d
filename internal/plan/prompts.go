package plan

import (
	"fmt"
	"strings"

	"github.com/ppiankov/enquete/internal/anonymize"
	"github.com/ppiankov/enquete/internal/model"
)

// SystemPrompt is sent with every plan, suggestion and draft request
const SystemPrompt = `Vous êtes un Officier de Police Judiciaire (OPJ) senior de la Gendarmerie Nationale française.
RÈGLES DE CONFIDENTIALITÉ :
1. Toute donnée nominative doit être remplacée par [INDIVIDU] ou [LIEU].
2. Vos réponses doivent être strictement professionnelles et conformes au Code de Procédure Pénale.
3. Ne mentionnez jamais d'informations confidentielles réelles.`

// DraftStyle extends SystemPrompt for procès-verbal drafts
const DraftStyle = "\nStyle : Administratif Gendarmerie (ex: 'L'an deux mille...', 'Agissant en vertu des articles...')."

// DraftFallback is returned when the provider answers a draft with no text
const DraftFallback = "Erreur lors de la génération du document."

func planPrompt(infraction, modusOperandi string) string {
	return fmt.Sprintf("Générez une trame d'enquête structurée pour l'infraction suivante : \"%s\".\nMode opératoire constaté : \"%s\".",
		anonymize.Text(infraction), anonymize.Text(modusOperandi))
}

// resultsSummary lists completed steps only, one per line
func resultsSummary(steps []model.InvestigationStep) string {
	var lines []string
	for _, s := range steps {
		if !s.Completed {
			continue
		}
		lines = append(lines, fmt.Sprintf("Acte: %s. Résultat: %s", anonymize.Text(s.Title), anonymize.Text(s.Result)))
	}
	return strings.Join(lines, "\n")
}

func suggestPrompt(infraction string, steps []model.InvestigationStep) string {
	return fmt.Sprintf("Infraction en cours : \"%s\".\nActes déjà réalisés et résultats :\n%s\n\nSur la base de ces éléments, proposez les prochaines étapes logiques de l'enquête.",
		anonymize.Text(infraction), resultsSummary(steps))
}

func draftPrompt(step model.InvestigationStep, infraction, modusOperandi string) string {
	status := "Préparez une trame de PV avant réalisation."
	if step.Completed {
		status = "L'acte a été réalisé. Résultats constatés : " + anonymize.Text(step.Result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rédigez un brouillon de procès-verbal de gendarmerie pour l'acte suivant : \"%s\".\n", anonymize.Text(step.Title))
	fmt.Fprintf(&b, "Nature de l'affaire : %s.\n", anonymize.Text(infraction))
	if strings.TrimSpace(modusOperandi) != "" {
		fmt.Fprintf(&b, "Mode opératoire : %s.\n", anonymize.Text(modusOperandi))
	}
	fmt.Fprintf(&b, "Cadre juridique : %s.\n", anonymize.Text(step.LegalBasis))
	fmt.Fprintf(&b, "Contexte : %s", status)
	return b.String()
}
