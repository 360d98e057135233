package slack

import "github.com/Strob0t/ilmihal/internal/port/notifier"

func init() {
	notifier.Register(providerName, func(settings map[string]string) (notifier.Notifier, error) {
		return NewNotifier(settings["webhook_url"]), nil
	})
}
