package acceptance

import (
	"encoding/json"
	"net/http"
)

func (s *Suite) TestHealthEndpoint() {
	resp, err := http.Get(s.BaseURL + "/health")
	s.Require().NoError(err, "Failed to make request")
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode, "Expected status 200")

	var body map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("pass", body["status"])
	s.Equal("pass", body["postgres"])
	s.Equal("pass", body["redis"])
}
