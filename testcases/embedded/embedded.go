package embedded

import _ "embed"

//go:embed prompts.jsonl
var PromptsData []byte
