package gamedata

// gamedata reads and writes the game's saved state: the pet, its stats, the
// player's coins and inventory, and their settings. The whole document is
// stored as a single JSON value under one key, so every update is a
// load-merge-save of the full document.
