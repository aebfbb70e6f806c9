package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ModePacket:
		return packetTemplate, nil
	case ModeChunk:
		return chunkTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const packetTemplate = `name = "tunframe"
mode = "packet"
read_size = 32768
write_size = 32768
batch_size = 64
first_sequence = 2

# Zero disables a limit. Reaching a limit pauses reads until frames drain.
max_ready_frames = 1024
max_buffered_bytes = 8388608

log_level = "info"
admin_addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]
`

const chunkTemplate = `name = "tunframe-chunk"
mode = "chunk"
read_size = 32768
write_size = 32768

# Chunks count as frames for max_ready_frames. Zero disables a limit.
max_ready_frames = 0
max_buffered_bytes = 8388608

log_level = "info"
# admin_addr = "127.0.0.1:9401"
`
