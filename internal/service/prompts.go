package service

import "fmt"

// Completion budgets per call site.
const (
	intentMaxTokens = 10
	filterMaxTokens = 100
	taskMaxTokens   = 150

	intentTemperature = 0
	filterTemperature = 0
	taskTemperature   = 0.5
)

func intentPrompt(message string) string {
	return fmt.Sprintf(
		"Klassifiziere die folgende Anfrage in eine von zwei Kategorien: 'create_task' "+
			"für das Erstellen einer Aufgabe, oder 'query_tasks' für eine Abfrage der Aufgaben. "+
			"Antworte bitte nur mit 'create_task' oder 'query_tasks'.\n\n"+
			"Anfrage: %s", message)
}

func filterPrompt(query string) string {
	return fmt.Sprintf(
		"Extrahiere aus der folgenden Anfrage Filterkriterien, um Aufgaben in Notion abzufragen. "+
			"Mögliche Filter sind:\n"+
			"- due_date (im Format YYYY-MM-DD)\n"+
			"- group (z. B. 'Familie', 'Maxi', 'Freundin', 'Freunde')\n"+
			"- priority (z. B. 'hoch', 'mittel', 'niedrig')\n\n"+
			"Gib das Ergebnis als JSON-Objekt zurück. "+
			"Wenn kein Filter angegeben ist, gib ein leeres Objekt {} zurück.\n\n"+
			"Anfrage: %s\n\n"+
			"Beispiel: {\"due_date\": \"2025-02-28\", \"group\": \"Familie\"}", query)
}

const taskSystemPrompt = "Du bist ein Task-Manager-Assistent. Bitte antworte IMMER in folgendem JSON-Format:\n\n" +
	"{\n" +
	"  \"task_name\": \"...\",\n" +
	"  \"due_date\": \"...\",  // Gib das Datum so zurück, dass der Dateparser es versteht (auf Englisch)\n" +
	"  \"priority\": \"...\", // kategorisiere zwischen 'Wichtig', 'Mittel', 'Niedrig' – falls Eingabe fehlt, setze auf 'Mittel'\n" +
	"  \"group\": \"...\" // falls Eingabe fehlt, setze auf 'Maxi'\n" +
	"}\n\n"
