package compliance

const (
	requiredFilesScoreWeightConstant = 0.8
	allFilesScoreWeightConstant      = 0.2
	filesOverallWeightConstant       = 0.6
	labelsOverallWeightConstant      = 0.4
	maximumScoreConstant             = 100.0
)

// FileCheckResult records the outcome of probing one file standard.
type FileCheckResult struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Found       bool   `json:"found"`
	MatchedPath string `json:"matched_path,omitempty"`
}

// ScoreFiles weighs required file standards at 80% and the full set at 20%.
func ScoreFiles(results []FileCheckResult) float64 {
	if len(results) == 0 {
		return 0
	}

	requiredTotal := 0
	requiredFound := 0
	allFound := 0
	for _, result := range results {
		if result.Required {
			requiredTotal++
			if result.Found {
				requiredFound++
			}
		}
		if result.Found {
			allFound++
		}
	}

	requiredRatio := 1.0
	if requiredTotal > 0 {
		requiredRatio = float64(requiredFound) / float64(requiredTotal)
	}
	allRatio := float64(allFound) / float64(len(results))

	return (requiredRatio*requiredFilesScoreWeightConstant + allRatio*allFilesScoreWeightConstant) * maximumScoreConstant
}

// ScoreLabels returns the fraction of standard labels present as a percentage.
func ScoreLabels(presentCount int, totalCount int) float64 {
	if totalCount == 0 {
		return 0
	}
	return float64(presentCount) / float64(totalCount) * maximumScoreConstant
}

// OverallScore combines the file and label scores at a 60/40 weighting.
func OverallScore(filesScore float64, labelsScore float64) float64 {
	return filesScore*filesOverallWeightConstant + labelsScore*labelsOverallWeightConstant
}
