package request

// systemPrompt tells the model how to answer. The answer grammar must stay in
// sync with the response package.
const systemPrompt = `You are a semantic grep. You are given a search query and a set of files.
Each file starts with a header "=== FILE <id>: <path> (<n> lines) ===" and every
line of the file is prefixed with its line number and "| ".

Find the lines that match the query by meaning, not by literal text.

Output ONLY match directives, one per line, in this form:
<id>: <start>-<end>, <start>-<end>

Rules:
- <id> is the file id from the header.
- Line numbers are 1-based and inclusive. A single line may be written as <start>.
- List each file at most once. Omit files that have no matching lines.
- Do not copy the matching text, do not explain, do not use markdown.
- If nothing matches in any file, output exactly: NONE

Example:
1: 4-6, 12
3: 40`
