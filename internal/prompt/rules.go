package prompt

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules holds the extraction constraints embedded in the prompt. The
// exclusion rules are the anti-hallucination contract: they keep the model
// from promoting testimonial authors and passive investors into the org
// chart.
type Rules struct {
	Exclusions []string `yaml:"exclusions"`
	Inclusions []string `yaml:"inclusions"`
}

// DefaultRules returns the compiled-in extraction rules.
func DefaultRules() Rules {
	return Rules{
		Exclusions: []string{
			`IGNORE TESTIMONIALS. If a person is quoted praising the company, they are a CUSTOMER. DO NOT extract them.`,
			`IGNORE INVESTORS/ADVISORS if they are not operationally involved.`,
		},
		Inclusions: []string{
			`LOOK FOR: "Founding Team", "Leadership", "Our Team", "Management".`,
			`If LinkedIn URLs are found (e.g. linkedin.com/in/name), capture them.`,
			`ONLY extract real people explicitly named in the text.`,
		},
	}
}

// LoadRules reads extraction rules from a YAML file. An empty path returns
// the defaults; a file that omits a section keeps that section's defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "prompt: read rules file %s", path)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return rules, eris.Wrapf(err, "prompt: parse rules file %s", path)
	}

	if len(loaded.Exclusions) > 0 {
		rules.Exclusions = loaded.Exclusions
	}
	if len(loaded.Inclusions) > 0 {
		rules.Inclusions = loaded.Inclusions
	}
	return rules, nil
}
