package devkit

import (
	"encoding/json"
	"net/http"
)

// TokenResponse returns a JSON token endpoint reply.
func TokenResponse(accessToken string, refreshToken string) HTTPScript {
	payload := map[string]any{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   3600,
	}
	if refreshToken != "" {
		payload["refresh_token"] = refreshToken
	}
	return JSONResponse(http.StatusOK, payload)
}

// TokenError returns an OAuth error reply such as invalid_grant.
func TokenError(status int, code string, description string) HTTPScript {
	return JSONResponse(status, map[string]any{
		"error":             code,
		"error_description": description,
	})
}

func JSONResponse(status int, payload any) HTTPScript {
	body, err := json.Marshal(payload)
	if err != nil {
		return HTTPScript{Err: err}
	}
	return HTTPScript{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
