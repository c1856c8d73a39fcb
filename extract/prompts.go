package extract

import "strings"

// classifyQueryPrompt asks the AI façade to classify a query's shape so the
// pipeline knows whether to expect many items, one answer, or an overview.
const classifyQueryPrompt = `Classify the intent of this search query.

Query: {query}

Categories:
- COLLECTION: "Find all X" - looking for a list of items (volunteer opportunities, services, events)
- SINGULAR: "Find specific info" - looking for one piece of information (phone number, email, address)
- NARRATIVE: "Summarize/describe" - looking for an overview or description

Output JSON:
{
    "strategy": "COLLECTION" | "SINGULAR" | "NARRATIVE",
    "confidence": 0.0 to 1.0,
    "reasoning": "brief explanation"
}`

// expandQueryPrompt asks for related search terms, used to widen keyword
// recall for queries whose initial hit count is too small to trust.
const expandQueryPrompt = `Expand this search query with related terms to improve recall.

Query: {query}

Generate 5-10 related search terms that would help find relevant content.
Include:
- Synonyms
- Related concepts
- Common phrasings
- Industry jargon

Output JSON array of strings:
["term1", "term2", "term3", ...]`

// partitionPrompt asks the AI to split recalled page summaries into the
// distinct items a Collection or Narrative query should extract one by one.
const partitionPrompt = `Given a query and page summaries, identify distinct items to extract.

Query: {query}

For this query, determine:
1. What constitutes ONE distinct item?
2. Which pages contribute to each item?
3. Why are these pages grouped together?

Page Summaries:
{summaries}

Output JSON array:
[
    {
        "title": "Brief item title",
        "urls": ["url1", "url2"],
        "rationale": "Why these pages are grouped"
    }
]

Rules:
- Each item should be distinct (no duplicates)
- Pages can appear in multiple items if they contain multiple distinct things
- If a page contains only one item, it gets its own partition
- Group pages that discuss the SAME specific thing`

// extractPrompt is the general-purpose evidence-grounded extraction prompt,
// used for Collection-strategy partitions.
const extractPrompt = `Extract information about: {query}

From these pages:
{pages}

Rules:
1. For EVERY claim, quote the source text that supports it
2. Note which page (URL) each quote comes from
3. Mark claims as:
   - DIRECT: Exact quote supports the claim
   - INFERRED: Reasonable inference from the source
   - ASSUMED: No direct evidence (WARNING: may be hallucination)
4. Explicitly note what information is MISSING (gaps)
5. If sources contradict each other, note the conflict

{hints_section}

Output JSON:
{
    "content": "Extracted information as markdown",
    "claims": [
        {
            "statement": "The claim being made",
            "evidence": [
                {
                    "quote": "Exact quote from source",
                    "source_url": "https://..."
                }
            ],
            "grounding": "DIRECT" | "INFERRED" | "ASSUMED"
        }
    ],
    "sources": [
        {
            "url": "https://...",
            "role": "PRIMARY" | "SUPPORTING" | "CORROBORATING"
        }
    ],
    "gaps": [
        {
            "field": "What's missing (e.g., 'contact email')",
            "query": "Search query to find it (e.g., 'the contact email for the volunteer coordinator')"
        }
    ],
    "conflicts": [
        {
            "topic": "What the conflict is about",
            "claims": [
                {"statement": "Claim A", "source_url": "url1"},
                {"statement": "Claim B", "source_url": "url2"}
            ]
        }
    ]
}`

// extractSinglePrompt targets Singular-strategy queries: one best answer
// instead of a claim list.
const extractSinglePrompt = `Find the answer to: {query}

From these pages:
{pages}

Rules:
1. Find the SINGLE best answer
2. Quote the source text that contains the answer
3. If multiple sources give different answers, note the conflict
4. If the answer is not found, say so clearly

Output JSON:
{
    "content": "The answer (or 'Not found' if not present)",
    "found": true | false,
    "source": {
        "url": "https://...",
        "quote": "Exact quote containing the answer"
    },
    "conflicts": [
        {
            "topic": "{query}",
            "claims": [
                {"statement": "Answer A", "source_url": "url1"},
                {"statement": "Answer B", "source_url": "url2"}
            ]
        }
    ]
}`

// extractNarrativePrompt targets Narrative-strategy queries: a synthesized
// overview with inline citations instead of discrete claims.
const extractNarrativePrompt = `Summarize information about: {query}

From these pages:
{pages}

Create a cohesive narrative that:
1. Synthesizes information from all relevant pages
2. Organizes information logically
3. Cites sources for key facts
4. Notes any contradictions between sources

Output JSON:
{
    "content": "Narrative summary as markdown with inline citations [1], [2], etc.",
    "sources": [
        {"number": 1, "url": "https://...", "title": "Page title"}
    ],
    "key_points": ["Main point 1", "Main point 2"],
    "conflicts": []
}`

func formatClassifyQueryPrompt(query string) string {
	return strings.ReplaceAll(classifyQueryPrompt, "{query}", query)
}

func formatExpandQueryPrompt(query string) string {
	return strings.ReplaceAll(expandQueryPrompt, "{query}", query)
}

// summaryPair is a (url, text) tuple formatted into the partition and
// extraction prompts.
type summaryPair struct {
	URL  string
	Text string
}

func formatPartitionPrompt(query string, summaries []summaryPair) string {
	var sb strings.Builder

	for i, s := range summaries {
		if i > 0 {
			sb.WriteString("\n---\n")
		}

		sb.WriteString("URL: " + s.URL + "\nSummary: " + s.Text + "\n")
	}

	replacer := strings.NewReplacer("{query}", query, "{summaries}", sb.String())

	return replacer.Replace(partitionPrompt)
}

func formatPagesSection(pages []summaryPair) string {
	var sb strings.Builder

	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n---\n")
		}

		sb.WriteString("=== PAGE: " + p.URL + " ===\n" + p.Text + "\n")
	}

	return sb.String()
}

func formatExtractPrompt(query string, pages []summaryPair, hints []string) string {
	hintsSection := ""
	if len(hints) > 0 {
		hintsSection = "Focus on extracting these fields: " + strings.Join(hints, ", ")
	}

	replacer := strings.NewReplacer(
		"{query}", query,
		"{pages}", formatPagesSection(pages),
		"{hints_section}", hintsSection,
	)

	return replacer.Replace(extractPrompt)
}

func formatExtractSinglePrompt(query string, pages []summaryPair) string {
	replacer := strings.NewReplacer("{query}", query, "{pages}", formatPagesSection(pages))
	return replacer.Replace(extractSinglePrompt)
}

func formatExtractNarrativePrompt(query string, pages []summaryPair) string {
	replacer := strings.NewReplacer("{query}", query, "{pages}", formatPagesSection(pages))
	return replacer.Replace(extractNarrativePrompt)
}
