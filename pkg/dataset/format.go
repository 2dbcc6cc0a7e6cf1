package dataset

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// NetworkPrompt is the user turn written by FormatNetworkChat. The
// placeholders are part of the text and are not substituted.
const NetworkPrompt = "In and undirected weighted graph, (i,j) means that node i and node j are connected with an undirected, weighted edge. The nodes are: {nodes} and the edges are: {edges}.\n {question}"

// NetworkAnswer is the assistant turn written by FormatNetworkChat.
const NetworkAnswer = "yes"

// FormatChat renders row[inputCol] as a single user turn and row[outputCol]
// as a single assistant turn and stores the two strings under "input" and
// "output". Calling it again with the same arguments rewrites the same values.
func FormatChat(
	ctx context.Context,
	row Row,
	inputCol string,
	outputCol string,
	templater ai.ChatTemplater,
) (Row, error) {
	input, err := row.str(inputCol)
	if err != nil {
		return row, err
	}
	output, err := row.str(outputCol)
	if err != nil {
		return row, err
	}

	renderedInput, err := templater.ApplyChatTemplate(ctx, []ai.ChatMessage{
		{Role: ai.RoleUser, Content: input},
	}, false)
	if err != nil {
		return row, fmt.Errorf("render input: %w", err)
	}
	renderedOutput, err := templater.ApplyChatTemplate(ctx, []ai.ChatMessage{
		{Role: ai.RoleAssistant, Content: output},
	}, false)
	if err != nil {
		return row, fmt.Errorf("render output: %w", err)
	}

	row[ColumnInput] = renderedInput.Text
	row[ColumnOutput] = renderedOutput.Text
	return row, nil
}

// FormatNetworkChat renders the fixed two-turn graph conversation
// (NetworkPrompt, then NetworkAnswer) and stores it under "text".
//
// nodes, edges and question are accepted for the caller's convenience but
// are not written into the prompt: the {nodes}, {edges} and {question}
// placeholders stay literal and the answer is always "yes". Callers that
// need the graph in the prompt have to build the row text themselves.
func FormatNetworkChat(
	ctx context.Context,
	row Row,
	nodes []string,
	edges []string,
	question string,
	templater ai.ChatTemplater,
) (Row, error) {
	if row == nil {
		row = Row{}
	}

	rendered, err := templater.ApplyChatTemplate(ctx, []ai.ChatMessage{
		{Role: ai.RoleUser, Content: NetworkPrompt},
		{Role: ai.RoleAssistant, Content: NetworkAnswer},
	}, false)
	if err != nil {
		return row, fmt.Errorf("render network chat: %w", err)
	}

	row[ColumnText] = rendered.Text
	return row, nil
}

// FormatChatAll runs FormatChat over rows with up to workers goroutines.
// Each row is handled by exactly one goroutine. The first error cancels the
// remaining work.
func FormatChatAll(
	ctx context.Context,
	rows []Row,
	inputCol string,
	outputCol string,
	templater ai.ChatTemplater,
	workers int,
) error {
	return forEachRow(ctx, rows, workers, func(ctx context.Context, row Row) error {
		_, err := FormatChat(ctx, row, inputCol, outputCol, templater)
		return err
	})
}

// FormatNetworkChatAll runs FormatNetworkChat over rows, passing each row's
// questionCol value as the question.
func FormatNetworkChatAll(
	ctx context.Context,
	rows []Row,
	nodes []string,
	edges []string,
	questionCol string,
	templater ai.ChatTemplater,
	workers int,
) error {
	return forEachRow(ctx, rows, workers, func(ctx context.Context, row Row) error {
		question, err := row.str(questionCol)
		if err != nil {
			return err
		}
		_, err = FormatNetworkChat(ctx, row, nodes, edges, question, templater)
		return err
	})
}

func forEachRow(ctx context.Context, rows []Row, workers int, fn func(context.Context, Row) error) error {
	if workers <= 0 {
		workers = 1
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	logger.Debug("[Dataset] Formatting rows", "rows", len(rows), "workers", workers)

	for i, row := range rows {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := fn(gCtx, row); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			return nil
		})
	}

	return eg.Wait()
}
