package pipeline

import "fmt"

// User notices for explicit save flows. Automatic outcomes stay silent.

func (p *Pipeline) storedNotice() string {
	if p.locale == "en" {
		return "Noted, I will remember that."
	}
	return "Not ettim, bunu hatırlayacağım."
}

func (p *Pipeline) duplicateNotice() string {
	if p.locale == "en" {
		return "I already remember that."
	}
	return "Bunu zaten hatırlıyorum."
}

func (p *Pipeline) retaggedNotice(topic string) string {
	if p.locale == "en" {
		return fmt.Sprintf("Noted. Your topic list is full, so I saved this under %q.", topic)
	}
	return fmt.Sprintf("Not ettim. Konu listen dolu olduğu için bunu %q altında kaydettim.", topic)
}
