package repository

import "errors"

var ErrNotProcessing = errors.New("notification is not in processing state")
