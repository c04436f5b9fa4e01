package vault

import (
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
)

// MinPassphraseScore is the lowest zxcvbn score (0-4) accepted for a new vault.
const MinPassphraseScore = 2

// CheckPassphrase rejects passphrases zxcvbn scores below MinPassphraseScore.
func CheckPassphrase(passphrase []byte) error {
	result := zxcvbn.PasswordStrength(string(passphrase), nil)
	if result.Score < MinPassphraseScore {
		return fmt.Errorf("%w: score %d, need %d", ErrWeakPassphrase, result.Score, MinPassphraseScore)
	}
	return nil
}
