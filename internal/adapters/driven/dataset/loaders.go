package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// questionColumns are accepted names for the question text column.
var questionColumns = []string{"domanda", "question", "text"}

// idColumns are accepted names for the question id column.
var idColumns = []string{"row_id", "id", "question_id"}

// LoadQuestions reads a questions CSV file.
func LoadQuestions(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()

	questions, err := ParseQuestions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questions, nil
}

// ParseQuestions reads questions from CSV with a header row. The text column
// is "domanda", "question" or "text", otherwise the first column. Without an
// id column questions are numbered from 1 in file order.
func ParseQuestions(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	textCol := columnIndex(header, questionColumns)
	if textCol < 0 {
		textCol = 0
	}
	idCol := columnIndex(header, idColumns)

	var questions []domain.Question
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if textCol >= len(record) {
			return nil, fmt.Errorf("%w: line %d has no question", domain.ErrInvalidInput, line)
		}

		q := domain.Question{ID: len(questions) + 1, Text: strings.TrimSpace(record[textCol])}
		if idCol >= 0 && idCol < len(record) {
			q.ID, err = strconv.Atoi(strings.TrimSpace(record[idCol]))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid id %q", domain.ErrInvalidInput, line, record[idCol])
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func columnIndex(header, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// LoadRecords reads record store records from a JSON Lines file.
func LoadRecords(path string) ([]domain.Record, error) {
	var records []domain.Record
	err := readJSONLines(path, func(line []byte) error {
		var rec domain.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	return records, err
}

// documentLine is one document in a JSON Lines import. page_content is
// accepted as an alias for content.
type documentLine struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// LoadDocuments reads documents from a JSON Lines file.
func LoadDocuments(path string) ([]domain.Document, error) {
	var docs []domain.Document
	err := readJSONLines(path, func(line []byte) error {
		var d documentLine
		if err := json.Unmarshal(line, &d); err != nil {
			return err
		}
		content := d.Content
		if content == "" {
			content = d.PageContent
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("%w: document without content", domain.ErrInvalidInput)
		}
		docs = append(docs, domain.Document{ID: d.ID, Content: content, Metadata: d.Metadata})
		return nil
	})
	return docs, err
}

// LoadDishes reads graph dishes from a JSON Lines file.
func LoadDishes(path string) ([]domain.Dish, error) {
	var dishes []domain.Dish
	err := readJSONLines(path, func(line []byte) error {
		var d domain.Dish
		if err := json.Unmarshal(line, &d); err != nil {
			return err
		}
		dishes = append(dishes, d)
		return nil
	})
	return dishes, err
}

// readJSONLines calls fn for every non-blank line.
func readJSONLines(path string, fn func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := fn([]byte(text)); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
