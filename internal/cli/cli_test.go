package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/garage-geo/internal/app"
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

var offline = []string{"--provider", "none", "--min-interval", "0s", "--cache", "memory"}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut, app.Options{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestResolve_DistrictAndUnresolved(t *testing.T) {
	args := append([]string{"resolve", "서울 강남구 테헤란로 123", "알수없는주소 999"}, offline...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "강남구")
	assert.Contains(t, lines[0], "37.517236,127.047325")
	assert.Contains(t, lines[1], "unresolved")
	assert.Contains(t, lines[1], "no_match")
}

func TestResolve_JSON(t *testing.T) {
	args := append([]string{"resolve", "--json", "마포구 월드컵로 240"}, offline...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var locs []model.ResolvedLocation
	require.NoError(t, json.Unmarshal([]byte(out), &locs))
	require.Len(t, locs, 1)
	assert.Equal(t, model.OutcomeDistrict, locs[0].Outcome)
	assert.Equal(t, "마포구", locs[0].District)
	assert.NotEmpty(t, locs[0].Cell)
}

func TestResolve_RequiresArgument(t *testing.T) {
	_, _, err := execute(t, append([]string{"resolve"}, offline...)...)
	assert.Error(t, err)
}

func TestDistricts_ListsSeoulInOrder(t *testing.T) {
	out, _, err := execute(t, "districts")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 25)
	assert.True(t, strings.HasPrefix(lines[0], "종로구"))
}

func writeGarages(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "garages.csv")
	body := "차고지명,주소,면수,위도,경도\n" +
		"강서구 공영차고지,서울 강서구 방화동 100,30,,\n" +
		"외곽차고지,알수없는주소 999,10,,\n" +
		"좌표차고지,경기 어딘가,5,37.5,127.0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBatch_JSONWithSummaryAndWarning(t *testing.T) {
	in := writeGarages(t)
	outPath := filepath.Join(t.TempDir(), "placed.json")

	args := append([]string{"batch", "--input", in, "--output", outPath}, offline...)
	_, errOut, err := execute(t, args...)
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res batchOutput
	require.NoError(t, json.Unmarshal(b, &res))

	require.Len(t, res.Records, 3)
	assert.Equal(t, model.OutcomeDistrict, res.Records[0].Location.Outcome)
	assert.Equal(t, "강서구", res.Records[0].Location.District)
	assert.Equal(t, model.OutcomeUnresolved, res.Records[1].Location.Outcome)
	assert.Equal(t, model.OutcomeProvided, res.Records[2].Location.Outcome)
	assert.False(t, res.Partial)

	assert.Equal(t, 1, res.Summary.District)
	assert.Equal(t, 1, res.Summary.Unresolved)
	assert.Equal(t, 1, res.Summary.Provided)
	assert.Equal(t, 1, res.Summary.ProviderCalls)

	assert.Contains(t, errOut, "3 records")
	assert.Contains(t, errOut, "warning")
}

func TestBatch_CSVOutputToStdout(t *testing.T) {
	in := writeGarages(t)
	args := append([]string{"batch", "--input", in, "--format", "csv", "--warn-ratio", "0.5"}, offline...)
	out, errOut, err := execute(t, args...)
	require.NoError(t, err)
	assert.NotContains(t, errOut, "warning")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "강서구", rows[1][4])
	assert.Equal(t, "30", rows[1][2])
	assert.Equal(t, "", rows[2][5])
	assert.Equal(t, "no_match", rows[2][9])
	assert.Equal(t, "37.500000", rows[3][5])
}

func TestBatch_RejectsUnknownFormat(t *testing.T) {
	in := writeGarages(t)
	args := append([]string{"batch", "--input", in, "--format", "xml"}, offline...)
	_, _, err := execute(t, args...)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestCacheClear_ForgetsRedisEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	shared := []string{"--provider", "none", "--min-interval", "0s", "--cache", "redis", "--redis-addr", mr.Addr()}

	_, _, err := execute(t, append([]string{"resolve", "알수없는주소 999", "용답동 250"}, shared...)...)
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 2)

	out, _, err := execute(t, append([]string{"cache", "clear", "--address", "용답동 250"}, shared...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 address(es) forgotten")
	require.Len(t, mr.Keys(), 1)

	out, _, err = execute(t, append([]string{"cache", "clear"}, shared...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "cache cleared")
	assert.Empty(t, mr.Keys())
}
