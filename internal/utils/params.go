package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetID parses the named path parameter as a record id.
func GetID(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, fmt.Errorf("%s not found", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}

	return uint(id), nil
}

// ExtractHost reduces a URL or bare host name to the host name.
func ExtractHost(input string) (string, error) {
	host := strings.TrimSpace(input)

	if host == "" {
		return "", errors.New("host cannot be empty")
	}

	if strings.Contains(host, "://") {
		parsedURL, err := url.Parse(host)
		if err != nil {
			return "", errors.New("invalid URL format")
		}

		if parsedURL.Hostname() == "" {
			return "", errors.New("no hostname found in URL")
		}

		host = parsedURL.Hostname()
	}

	host = strings.TrimSuffix(host, "/")

	if host == "" || strings.ContainsAny(host, " /") {
		return "", errors.New("invalid host name")
	}

	return strings.ToLower(host), nil
}
