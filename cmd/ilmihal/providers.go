package main

// Notifier blank imports. Each import registers its factory with the
// notifier registry; notify.providers in the config selects which run.

import (
	_ "github.com/Strob0t/ilmihal/internal/adapter/email"
	_ "github.com/Strob0t/ilmihal/internal/adapter/slack"
)
