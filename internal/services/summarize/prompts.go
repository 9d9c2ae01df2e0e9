package summarize

import (
	"fmt"
	"strings"
)

// The chunk prompts instruct the model to summarize one transcript window
// without inventing content; the rules section forbids speculation so a
// garbled transcription surfaces as "Uklart"/"Unclear" instead of a
// confident guess.

const chunkPromptNorwegian = `Du er en presis notat-taker for akademiske forelesninger. Oppsummer følgende transkripsjon i strukturert markdown-format.

VIKTIGE REGLER (NEGATIVT PROMPT):
- Ikke spekuler eller gjett informasjon som ikke er i teksten
- Ikke legg til fakta som ikke står eksplisitt i transkripsjonen
- Ikke referer til prosessen ("i transkripsjonen sies...", "lyden viser...")
- Ikke skriv tidsstempler
- Ikke bruk lange avsnitt uten struktur
- Hvis noe er uklart: skriv "Uklart: ..." i stedet for å gjette

FORMAT:
- Bruk markdown overskrifter (##, ###)
- Bruk LaTeX for matematiske uttrykk: $inline$ eller $$display$$
- Bruk bullet points for lister
- Hold språket presist og akademisk

TRANSKRIPSJON:
%s

OPPSUMMERING:`

const chunkPromptEnglish = `You are a precise note-taker for academic lectures. Summarize the following transcription in structured markdown format.

IMPORTANT RULES (NEGATIVE PROMPT):
- Do NOT speculate or guess information not in the text
- Do NOT add facts not explicitly stated in the transcription
- Do NOT refer to the process ("the transcription says...", "the audio shows...")
- Do NOT write timestamps
- Do NOT use long paragraphs without structure
- If something is unclear: write "Unclear: ..." instead of guessing

FORMAT:
- Use markdown headings (##, ###)
- Use LaTeX for mathematical expressions: $inline$ or $$display$$
- Use bullet points for lists
- Keep language precise and academic

TRANSCRIPTION:
%s

SUMMARY:`

const mergePromptNorwegian = `Du skal merge flere del-oppsummeringer fra en forelesning til ett sammenhengende dokument.

VIKTIGE REGLER (NEGATIVT PROMPT):
- Ikke introduser nye temaer som ikke finnes i del-oppsummeringene
- Ikke "normaliser" uklare punkter til noe som virker riktig - behold usikkerhet eksplisitt
- Ikke endre språk tilfeldig; hold norsk
- Ikke legg til konklusjoner eller analyser som ikke er i oppsummeringene

OPPGAVE:
1. Les alle del-oppsummeringene
2. Organiser innholdet i en logisk struktur med:
   - # Tittel (hovedoverskrift for forelesningen)
   - ## Hovedtemaer (kort oversikt)
   - ## Detaljert innhold (med underoverskrifter)
   - ## Konklusjon (hvis eksplisitt nevnt i oppsummeringene)
3. Behold all viktig informasjon
4. Fjern overflødige repetisjoner
5. Bruk LaTeX for matematikk
6. Bruk markdown-formatering

DEL-OPPSUMMERINGER:
%s

ENDELIG SAMMENDRAG:`

const mergePromptEnglish = `You are merging multiple chunk summaries from a lecture into one coherent document.

IMPORTANT RULES (NEGATIVE PROMPT):
- Do NOT introduce new topics not found in the chunk summaries
- Do NOT "normalize" unclear points to something that seems right - keep uncertainty explicit
- Do NOT randomly change language; keep English
- Do NOT add conclusions or analyses not in the summaries

TASK:
1. Read all chunk summaries
2. Organize content into logical structure with:
   - # Title (main heading for the lecture)
   - ## Main Topics (brief overview)
   - ## Detailed Content (with subheadings)
   - ## Conclusion (if explicitly mentioned in summaries)
3. Keep all important information
4. Remove redundant repetitions
5. Use LaTeX for mathematics
6. Use markdown formatting

CHUNK SUMMARIES:
%s

FINAL SUMMARY:`

func buildChunkPrompt(text string, norwegian bool) string {
	if norwegian {
		return fmt.Sprintf(chunkPromptNorwegian, text)
	}
	return fmt.Sprintf(chunkPromptEnglish, text)
}

func buildMergePrompt(combined string, norwegian bool) string {
	if norwegian {
		return fmt.Sprintf(mergePromptNorwegian, combined)
	}
	return fmt.Sprintf(mergePromptEnglish, combined)
}

// combineSummaries labels each pass-one summary and joins them with a
// divider so the merge pass can tell the parts apart.
func combineSummaries(summaries []string, norwegian bool) string {
	label := "PART"
	if norwegian {
		label = "DEL"
	}
	parts := make([]string, len(summaries))
	for i, summary := range summaries {
		parts[i] = fmt.Sprintf("%s %d:\n%s", label, i+1, summary)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
