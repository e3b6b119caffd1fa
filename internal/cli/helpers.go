package cli

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/splitcheck/splitcheck/internal/experiment"
	"github.com/splitcheck/splitcheck/internal/store"
)

// withStore opens the run-history database, runs fn, and closes it.
func withStore(fn func(s *store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// loadDataset reads and joins the two CSV files named by the command args.
func loadDataset(args []string) ([]experiment.Observation, error) {
	obs, err := experiment.LoadCSV(args[0], args[1])
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations after joining %s and %s", args[0], args[1])
	}
	logger.Debug().Int("rows", len(obs)).Msg("dataset loaded")
	return obs, nil
}

// confirmProceed asks the user whether to continue past data-quality
// warnings. Declining is not an error.
func confirmProceed() (bool, error) {
	prompt := promptui.Prompt{
		Label:     "Data quality warnings were raised. Proceed with analysis",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if err == promptui.ErrAbort || err == promptui.ErrInterrupt {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
