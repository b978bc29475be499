package platform

import (
	"os"
	"os/user"

	"github.com/gvillage/startupapp/internal/conf"
)

// userIDVariables are consulted in order before the account database.
var userIDVariables = []string{"LOGNAME", "USER", "LNAME", "USERNAME"}

func (p *Provider) getenv(key string) string {
	if p.Getenv != nil {
		return p.Getenv(key)
	}
	return os.Getenv(key)
}

// userIDStep determines the login name of the user running the program.
func (p *Provider) userIDStep() Step {
	return Step{
		Name: "user id",
		Collect: func(conf.ConfigMap) ([]Fact, error) {
			for _, name := range userIDVariables {
				if v := p.getenv(name); v != "" {
					return []Fact{{Key: conf.KeyUserID, Value: v}}, nil
				}
			}
			u, err := user.Current()
			if err != nil {
				return nil, err
			}
			if u.Username == "" {
				return nil, ErrNoUserID
			}
			return []Fact{{Key: conf.KeyUserID, Value: u.Username}}, nil
		},
	}
}
