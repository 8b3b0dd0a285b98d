package models

// FrameworkSignal is the detection evidence for one frontend framework.
type FrameworkSignal struct {
	// Weight is the accumulated confidence score. Signals are additive;
	// a build manifest weighs more than a DOM attribute.
	Weight float64 `json:"weight"`

	// Signals names the individual markers that matched, for diagnostics.
	Signals []string `json:"signals"`

	// Version is the framework version when the page advertises one.
	Version string `json:"version,omitempty"`
}

// DetectResult maps framework identifiers (next, nuxt, vue, react, angular,
// svelte, astro) to their detection evidence. Frameworks with no matching
// signals are absent.
type DetectResult map[string]FrameworkSignal
