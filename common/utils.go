package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

// GenUUID returns a random v4 uuid, used to tell scope chains and resolvers apart in logs.
func GenUUID() string {
	// uuid.NewV4() only fails if crypto/rand does, in which case try again
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
