package utils

import "log"

// SafeGo 拦截 panic 的 goroutine，name 用于日志定位
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[SafeGo] %s: panic recovered: %v", name, err)
			}
		}()
		fn()
	}()
}
