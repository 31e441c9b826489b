// Package prompt renders dataset-specific prompts that combine retrieved
// exemplars and the target input under a token budget.
package prompt

import "clin-summ/internal/errdefs"

// Template describes how one dataset's task is phrased. Each dataset has
// exactly one canonical template per demo flag.
type Template struct {
	ID          string
	Instruction string
	InputLabel  string
	OutputLabel string
}

var templates = map[string]Template{
	"opi": {
		ID:          "opi",
		Instruction: "Summarize the radiology findings into a concise impression.",
		InputLabel:  "FINDINGS",
		OutputLabel: "IMPRESSION",
	},
	"opi-demo": {
		ID:          "opi-demo",
		Instruction: "Write the impression for these findings.",
		InputLabel:  "FINDINGS",
		OutputLabel: "IMPRESSION",
	},
	"chq": {
		ID:          "chq",
		Instruction: "Summarize the patient's message into a single focused question for a clinician.",
		InputLabel:  "QUESTION",
		OutputLabel: "SUMMARIZED QUESTION",
	},
	"chq-demo": {
		ID:          "chq-demo",
		Instruction: "Rewrite this as one focused question.",
		InputLabel:  "QUESTION",
		OutputLabel: "SUMMARIZED QUESTION",
	},
	"d2n": {
		ID:          "d2n",
		Instruction: "Summarize the doctor-patient dialogue into an assessment and plan.",
		InputLabel:  "DIALOGUE",
		OutputLabel: "ASSESSMENT AND PLAN",
	},
	"d2n-demo": {
		ID:          "d2n-demo",
		Instruction: "Write the assessment and plan for this dialogue.",
		InputLabel:  "DIALOGUE",
		OutputLabel: "ASSESSMENT AND PLAN",
	},
}

// ForDataset returns the canonical template for {dataset, demo}.
func ForDataset(dataset string, demo bool) (Template, error) {
	id := dataset
	if demo {
		id += "-demo"
	}
	tmpl, ok := templates[id]
	if !ok {
		return Template{}, errdefs.InvalidArgument("no template for dataset %q", dataset)
	}
	return tmpl, nil
}
