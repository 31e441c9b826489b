package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clin-summ/internal/errdefs"
)

// record matches the on-disk jsonl schema: one object per line.
type record struct {
	Inputs string `json:"inputs"`
	Target string `json:"target"`
}

// Load reads <dir>/<dataset>/<split>.jsonl into a Store. Ids are assigned
// from line order, so a file always loads into the same corpus order.
func Load(dir, dataset, split string) (*Store, error) {
	if !ValidDataset(dataset) {
		return nil, errdefs.InvalidArgument("unknown dataset %q (valid: %v)", dataset, Datasets())
	}

	path := filepath.Join(dir, dataset, split+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var examples []Example
	scanner := bufio.NewScanner(f)
	// Clinical dialogues can run long; raise the per-line limit well past the default.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			line++
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		examples = append(examples, Example{
			ID:            len(examples),
			SourceText:    rec.Inputs,
			TargetSummary: rec.Target,
			Domain:        dataset,
		})
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return NewStore(examples), nil
}
