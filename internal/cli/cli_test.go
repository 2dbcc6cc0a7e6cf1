package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestGraphText(t *testing.T) {
	path := writeTemp(t, "g.edgelist", "A B 1.0\nB C 2.5\n")

	out, err := runCLI(t, "", "graph", "text", path)
	if err != nil {
		t.Fatalf("graph text: %v", err)
	}
	for _, want := range []string{"  A\n", "  C\n", "(A,B) with weight 1.0", "(B,C) with weight 2.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGraphTextJSONFromStdin(t *testing.T) {
	out, err := runCLI(t, "x y 3\n", "graph", "text", "--json", "--kind", "directed", "-")
	if err != nil {
		t.Fatalf("graph text: %v", err)
	}

	var got struct {
		Nodes []string `json:"nodes"`
		Edges []string `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(got.Nodes) != 2 || got.Nodes[0] != "x" || got.Nodes[1] != "y" {
		t.Fatalf("nodes = %v", got.Nodes)
	}
	if len(got.Edges) != 1 || got.Edges[0] != "(x,y) with weight 3.0" {
		t.Fatalf("edges = %v", got.Edges)
	}
}

func TestGraphTextParseError(t *testing.T) {
	path := writeTemp(t, "bad.edgelist", "A B\n")

	if _, err := runCLI(t, "", "graph", "text", path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGraphDot(t *testing.T) {
	out, err := runCLI(t, "A B 1.0\n", "graph", "dot", "-")
	if err != nil {
		t.Fatalf("graph dot: %v", err)
	}
	if !strings.HasPrefix(out, "graph G {") || !strings.Contains(out, "--") {
		t.Fatalf("unexpected DOT:\n%s", out)
	}
}

func TestDatasetChat(t *testing.T) {
	rows := `{"question":"What is 2+2?","answer":"4"}` + "\n"

	out, err := runCLI(t, rows, "dataset", "chat", "--input-col", "question", "--output-col", "answer", "--workers", "2")
	if err != nil {
		t.Fatalf("dataset chat: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	wantInput := "<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\nWhat is 2+2?<|eot_id|>"
	if got["input"] != wantInput {
		t.Fatalf("input = %q, want %q", got["input"], wantInput)
	}
	wantOutput := "<|begin_of_text|><|start_header_id|>assistant<|end_header_id|>\n\n4<|eot_id|>"
	if got["output"] != wantOutput {
		t.Fatalf("output = %q, want %q", got["output"], wantOutput)
	}
	if got["question"] != "What is 2+2?" {
		t.Fatalf("original column lost: %v", got)
	}
}

func TestDatasetChatMissingColumn(t *testing.T) {
	_, err := runCLI(t, `{"question":"q"}`+"\n", "dataset", "chat", "--input-col", "question", "--output-col", "answer")
	if err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestDatasetNetwork(t *testing.T) {
	graphPath := writeTemp(t, "g.edgelist", "A B 1.0\n")
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	_, err := runCLI(t, `{"question":"Is A connected to B?"}`+"\n",
		"dataset", "network", "--graph", graphPath, "--out", outPath)
	if err != nil {
		t.Fatalf("dataset network: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(content, &got); err != nil {
		t.Fatalf("unmarshal %q: %v", content, err)
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, "{nodes}") || !strings.HasSuffix(text, "yes<|eot_id|>") {
		t.Fatalf("text = %q", text)
	}
}

func TestDatasetNetworkRequiresGraph(t *testing.T) {
	if _, err := runCLI(t, "", "dataset", "network"); err == nil {
		t.Fatal("expected error without --graph")
	}
}

func TestDatasetTokenizeInvalidMode(t *testing.T) {
	if _, err := runCLI(t, "", "dataset", "tokenize", "--mode", "words"); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestDatasetChatUnknownEncoding(t *testing.T) {
	rows := `{"input":"q","output":"a"}` + "\n"
	if _, err := runCLI(t, rows, "dataset", "chat", "--encoding", "nope_base"); err == nil {
		t.Fatal("expected unknown encoding error")
	}
}

func TestNewPipelineWiresTokenizerIntoTemplater(t *testing.T) {
	p, err := newPipeline(context.Background(), modelOpts{template: templateLlama, encoding: "cl100k_base"})
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}

	var _ ai.Tokenizer = p
	rendered, err := p.ApplyChatTemplate(context.Background(), []ai.ChatMessage{{Role: ai.RoleUser, Content: "hi"}}, false)
	if err != nil {
		t.Fatalf("ApplyChatTemplate() error = %v", err)
	}
	if !strings.Contains(rendered.Text, "hi<|eot_id|>") {
		t.Fatalf("Text = %q", rendered.Text)
	}
}

func TestNewPipelineUnknownTemplate(t *testing.T) {
	if _, err := newPipeline(context.Background(), modelOpts{template: "mistral"}); err == nil {
		t.Fatal("expected unknown template error")
	}
}
