package engines

import "github.com/JaimeStill/tollgate/pkg/apperr"

var ErrNotFound = apperr.NotFound("EngineNotFound", "Engine not found")

func unknownEngines(names []string) error {
	return ErrNotFound.WithDetails(map[string][]string{"names": names})
}
