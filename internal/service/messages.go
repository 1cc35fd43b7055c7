package service

import (
	"fmt"
	"strings"
)

// Fixed chat replies. The bot's audience is German-speaking.
const (
	msgWelcome = "Willkommen! Du kannst Aufgaben erstellen oder nach Aufgaben filtern.\n" +
		"Schreibe z.B. 'Erstelle eine Aufgabe ...' oder 'Welche Aufgaben habe ich morgen?'."
	msgUnrecognized  = "Ich konnte deine Anfrage nicht zuordnen. Bitte formuliere sie anders."
	msgProcessing    = "Ich verarbeite deine Aufgabe..."
	msgExtractFailed = "Fehler: Konnte die Aufgabe nicht extrahieren."
	msgStoreFailed   = "Fehler beim Speichern in Notion."
	msgNoMatches     = "Keine Aufgaben gefunden, die zu deiner Anfrage passen."
	msgDigestEmpty   = "Guten Morgen! Für heute stehen keine Aufgaben an."

	headerMatches = "Gefundene Aufgaben:\n"
	headerDigest  = "Guten Morgen! Hier sind deine Aufgaben für heute:\n"
)

func createdMessage(name string) string {
	return fmt.Sprintf("Jarvis hat die Task '%s' erstellt!", name)
}

// taskList renders header followed by one "- name" line per task.
func taskList(header string, names []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, name := range names {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}
