package artifacts

import (
	"encoding/json"
	"fmt"

	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
)

// notebookCell mirrors the minimal subset of the Jupyter notebook schema
// this three-cell skeleton needs. Hand-built rather than pulling in a
// notebook-format dependency: the schema this service emits is small and
// fixed, and no example repo in the corpus wires a notebook library, so a
// struct plus encoding/json is the right-sized tool here.
type notebookCell struct {
	CellType string                 `json:"cell_type"`
	Metadata map[string]interface{} `json:"metadata"`
	Source   []string               `json:"source"`
	Outputs  []interface{}          `json:"outputs,omitempty"`
}

type notebook struct {
	Cells    []notebookCell         `json:"cells"`
	Metadata map[string]interface{} `json:"metadata"`
	NBFormat int                    `json:"nbformat"`
	NBMinor  int                    `json:"nbformat_minor"`
}

// GenerateNotebook renders the three-cell Jupyter skeleton of spec §4.8: a
// Markdown header, an environment-dependent setup-instruction cell, and a
// code cell that shells out the run command.
func GenerateNotebook(jobID, runCommand string, env *envdetect.EnvironmentInfo) ([]byte, error) {
	nb := notebook{
		NBFormat: 4,
		NBMinor:  5,
		Metadata: map[string]interface{}{
			"language_info": map[string]interface{}{"name": "python"},
		},
		Cells: []notebookCell{
			{
				CellType: "markdown",
				Metadata: map[string]interface{}{},
				Source:   []string{fmt.Sprintf("# Reproduction: %s\n", jobID)},
			},
			{
				CellType: "markdown",
				Metadata: map[string]interface{}{},
				Source:   []string{setupInstructions(env)},
			},
			{
				CellType: "code",
				Metadata: map[string]interface{}{},
				Outputs:  []interface{}{},
				Source:   []string{fmt.Sprintf("!%s\n", runCommand)},
			},
		},
	}
	return json.MarshalIndent(nb, "", "  ")
}

func setupInstructions(env *envdetect.EnvironmentInfo) string {
	if env == nil {
		return "No environment was detected for this repository."
	}
	switch env.Type {
	case envdetect.EnvPip:
		return "Install dependencies with `pip install -r requirements.txt`."
	case envdetect.EnvConda:
		return "Create the conda environment with `conda env create -f environment.yml`."
	case envdetect.EnvPoetry:
		return "Install dependencies with `poetry install`."
	case envdetect.EnvPipenv:
		return "Install dependencies with `pipenv install`."
	default:
		return "Refer to the repository's README for setup instructions."
	}
}
