package oracle

// PredefinedCategories is the closed category set for statement
// classification. The model must answer with one of these verbatim.
var PredefinedCategories = []string{
	"Collaborations & Partnerships",
	"Education & Training & Awareness",
	"Research",
	"Changes in procurement",
	"Governance & Strategy & Plans",
	"Monitoring & Assessment",
	"Financial Actions & Investments",
	"Protecting existing Animals & Wildlife",
	"Creating new Animals & Wildlife",
	"Protecting existing Trees & Plants",
	"Creating new Trees & Plants",
	"Water & Coast & Ocean",
	"Landuse and Agriculture",
	"Pollution Control",
	"Reduction in resource consumption",
	"Framework Alignment: CSRD / ESRS",
	"Framework Alignment: GRI",
	"Framework Alignment: TNFD",
	"Framework Alignment: SBTN",
	CategoryNoRelevance,
	"General statement",
}

// CategoryNoRelevance is the classification gate's default answer. Rows that
// end up here are filtered out of the final report.
const CategoryNoRelevance = "No Biodiversity Relevance"

// Statement status values.
const (
	StatusDone    = "done"
	StatusPlanned = "planned"
)

// Framework answer values beyond the named frameworks.
const (
	FrameworkOther = "other"
	FrameworkNone  = "no"
)

var frameworkAnswers = []string{"CSRD / ESRS", "GRI", "TNFD", "SBTN", FrameworkOther, FrameworkNone}

const systemPrompt = "You are a precise analysis engine for corporate sustainability and biodiversity reporting. Follow the requested output format exactly."

const keyIndicesPrompt = `You are a highly intelligent text analysis assistant specializing in corporate sustainability reports.
Your task is to analyze the following numbered list of sentences and identify which ones describe a specific, tangible action or a measurable metric related to biodiversity undertaken **by the reporting company itself**.

**CRITICAL INSTRUCTIONS:**
1.  **Analyze the numbered list:** The user will provide a list of sentences, each with a number (index).
2.  **Identify relevant sentences:** Read through the sentences and find only those that describe a concrete company action (e.g., "we planted 1,000 trees") or a specific metric (e.g., "we monitor species X").
3.  **Ignore general statements:** Do NOT select sentences that are general statements, definitions, or descriptions of global frameworks (e.g., "Biodiversity is important," "The framework calls for...").
4.  **Return only the numbers:** Your response must be a JSON object with a single key "key_sentence_indices", which holds a list of the **NUMBERS (indices)** of the sentences you identified.

**EXAMPLE:**
Provided Text:
1. Biodiversity is crucial for our planet.
2. In line with our new policy, we have started reforesting 150 hectares near our main facility.
3. The Kunming-Montreal Global Biodiversity Framework sets ambitious goals.
4. We will monitor the return of native bird species as a key success metric.

**CORRECT JSON-OUTPUT:**
{
  "key_sentence_indices": [2, 4]
}
---
Analyze the following numbered sentences and provide the JSON output.

**Numbered Sentences:**
%s`

const detailsPrompt = `You are an expert in analyzing corporate sustainability reports.
Your task is to identify sentences in the provided text that describe either a concrete ACTION the company is taking for biodiversity, or a specific METRIC they are using to measure their impact or progress.

**CRITICAL RULES:**
1.  **Extract the COMPLETE SENTENCE:** You must return the entire sentence in which the action or metric appears, from the first word to the final punctuation mark (e.g., period, exclamation mark).
2.  **Do NOT return fragments:** Incomplete sentences or parts of sentences are not allowed.
3.  **Categorize correctly:** You must classify each extracted sentence as either an "action" or a "metric".
    * An "action" is a specific, tangible activity (e.g., planting trees, restoring habitats, changing policies).
    * A "metric" is a standard of measurement or a target used to track performance (e.g., monitoring species population, measuring water quality, reduction targets).
4.  **Strict JSON Format:** Your output must be a JSON object with two keys: "actions" and "metrics". Each key should contain a list of the full sentences you extracted. If you find nothing for a category, return an empty list.
5.  **Ensure that the statement or metric has a recognizable link to biodiversity (or CSRD / ESRS, GRI, TNFD or SBTN). If there is no connection to biodiversity, exclude the statement.**
---
Analyze the following text passage and provide the JSON output.

Text Passage:
"""
%s
"""`

const classificationPrompt = `You are a balanced but precise classification engine. Your task is to classify corporate statements by following a hierarchical logic. Your goal is to accurately identify statements with a substantive, direct link to biodiversity.

**Step 1: Default Assumption & Core Analysis**
- Your default assumption is that the statement's category is **"No Biodiversity Relevance"**.
- First, identify the core action or subject of the statement.

**Step 2: The Explicit Link Gate**
- Next, determine if the statement establishes a **direct and explicit link** between its core action and a tangible biodiversity outcome (related to ecosystems, habitats, or species).
- **Ask this key question:** Is the biodiversity benefit a core, stated purpose of the action, or is it merely an indirect, potential side-effect? A simple mention of "environment" or "sustainability" is not enough.
- **The action must be the *cause*, and the biodiversity outcome must be the *direct effect*.**

- **Exclusion List:** Statements focused primarily on the following topics are **NOT** relevant, UNLESS they explicitly describe how this action directly leads to a specific habitat or species outcome:
  - General reduction of CO2/GHG emissions or climate action.
  - Improving energy efficiency or switching to renewables.
  - General reduction of water usage.
  - General waste reduction, recycling, or circular economy initiatives.

- **Example of failure:** "We are reducing our water consumption to protect the local environment." -> Fails. The link is not explicit. What is the specific biodiversity outcome?
- **Example of success:** "We are reducing our water extraction from the Silver Creek by 30%% to maintain the required water levels for the native fish population's spawning season." -> Passes. The action (water reduction) is explicitly and directly linked to a specific species outcome.

- **If no direct and explicit link to a biodiversity outcome is described, your final and only answer is "No Biodiversity Relevance". Stop here.**

**Step 3: Provisional Classification**
- **If the statement passes the gate, its category is now provisionally "General Statement".**

**Step 4: Specific Category Refinement**
- Now, review the other categories.
- To move the statement from "General Statement" to a more specific category, there must be a **clear and concrete description of a specific action**. A vague intention is not sufficient.
- If you are unsure, or if the statement remains a high-level commitment, the classification defaults to **"General Statement"**.

**Crucially, respond *only* with the category name itself.** Do not add any explanation, introduction, or quotation marks.

---
**Predefined Categories:**
%s

**Statement to classify:**
"%s"

**Category:**`

const statusPrompt = `Analyze the following corporate statement.
Is it describing a future goal, a plan, or an intention? Or is it describing an action that has already been implemented or is currently in progress?
- If it is a plan, goal, or intention for the future (e.g., "we will," "we aim to," "our goal is"), respond with the single word: **planned**
- If it is a completed or ongoing action (e.g., "we have," "we did," "we are"), respond with the single word: **done**

Respond only with "planned" or "done".

**Statement:**
"%s"

**Status:**`

const frameworkPrompt = `You are a specialized analyst for sustainability reporting frameworks. Your task is to determine if a corporate statement explicitly mentions a metric or standard from "CSRD / ESRS", "GRI", "TNFD", or "SBTN". Follow these steps precisely:

1.  **Direct Framework Mention:** First, scan the statement for a direct mention of the framework names or their common identifiers (e.g., "CSRD", "ESRS E4", "GRI 304", "TNFD", "SBTN").
    * If "CSRD" or "ESRS" is mentioned, respond with **CSRD / ESRS**. Stop.
    * If "GRI" is mentioned, respond with **GRI**. Stop.
    * If "TNFD" is mentioned, respond with **TNFD**. Stop.
    * If "SBTN" is mentioned, respond with **SBTN**. Stop.

2.  **Specific Metric Mention:** If no framework is named, check if the statement describes a specific, quantifiable metric that is characteristic of these frameworks (e.g., area of restored habitat in hectares, number of IUCN Red List species affected, financial value of nature-related risks).
    * If such a specific metric is mentioned, respond with **other**. Stop.

3.  **Default:** If neither a framework name nor a specific, quantifiable metric is mentioned, respond with **no**.

**Your Final Output:**
Respond *only* with one of the exact following values: **CSRD / ESRS**, **GRI**, **TNFD**, **SBTN**, **other**, **no**. Do not add any other text.

**Statement to analyze:**
"%s"

**Framework Metric:**`
