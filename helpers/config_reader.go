package helpers

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// DecodeFile decodes the JSON file at fileName into object. It is used to
// load both the server configuration and the user database, so callers
// never open or parse these files themselves.
func DecodeFile(fileName string, object interface{}) error {
	log.WithField("file", fileName).Debug("decoding JSON file")

	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", fileName, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("could not parse %s: %w", fileName, err)
	}

	return nil
}
