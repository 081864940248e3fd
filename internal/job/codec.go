package job

import (
	"encoding/json"
	"fmt"
)

// The store persists two record shapes per job: the full Job entity under the
// main key and a bare Progress snapshot under the progress key. Both are JSON.

func encodeJob(j *Job) ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job %s: %w", j.ID, err)
	}
	return data, nil
}

func decodeJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to decode job record: %w", err)
	}
	return &j, nil
}

func encodeProgress(p *Progress) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress record: %w", err)
	}
	return data, nil
}

func decodeProgress(data []byte) (*Progress, error) {
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode progress record: %w", err)
	}
	return &p, nil
}
