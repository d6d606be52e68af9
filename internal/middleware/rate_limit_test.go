package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sniffContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	return c, w
}

func TestSniffEmailFromQuery(t *testing.T) {
	c, _ := sniffContext(http.MethodGet, "/api/loyalty/redeem?email=jan@example.nl", "")
	assert.Equal(t, "jan@example.nl", sniffEmail(c))
}

// Le body est relu par le handler en aval : le sniff ne le consomme pas
func TestSniffEmailFromBodyLeavesBodyReadable(t *testing.T) {
	body := `{"email":"jan@example.nl","points":100}`
	c, _ := sniffContext(http.MethodPost, "/api/loyalty/redeem", body)

	assert.Equal(t, "jan@example.nl", sniffEmail(c))

	rest, err := io.ReadAll(c.Request.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest))
}

// Un body démesuré ne se retrouve jamais intégralement en mémoire :
// la lecture s'arrête à la borne
func TestSniffEmailBoundsBodyRead(t *testing.T) {
	huge := `{"filler":"` + strings.Repeat("x", 1<<20) + `"}`
	c, _ := sniffContext(http.MethodPost, "/api/loyalty/redeem", huge)

	assert.Equal(t, "", sniffEmail(c))

	rest, err := io.ReadAll(c.Request.Body)
	require.NoError(t, err)
	assert.LessOrEqual(t, int64(len(rest)), maxSniffBody)
}

func TestSniffEmailIgnoresInvalidJSON(t *testing.T) {
	c, _ := sniffContext(http.MethodPost, "/api/loyalty/redeem", "geen json")
	assert.Equal(t, "", sniffEmail(c))
}

// Sans Redis la limite est désactivée : la requête passe
func TestLoyaltyRateLimitDisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoyaltyRateLimit(nil))
	r.POST("/api/loyalty/redeem", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/loyalty/redeem",
		strings.NewReader(`{"email":"jan@example.nl","points":100}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
